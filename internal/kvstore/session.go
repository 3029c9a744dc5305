package kvstore

import (
	"context"
	"fmt"

	"github.com/gin-contrib/sessions"
)

// Session 以浏览器 cookie 会话作为当前访客的持久化存储
type Session struct {
	session sessions.Session
}

func NewSession(s sessions.Session) *Session {
	return &Session{session: s}
}

func (s *Session) Get(_ context.Context, key string) ([]byte, bool, error) {
	switch v := s.session.Get(key).(type) {
	case nil:
		return nil, false, nil
	case string:
		return []byte(v), true, nil
	case []byte:
		return v, true, nil
	default:
		return nil, false, fmt.Errorf("session key %s holds %T", key, v)
	}
}

// Set 写入后立即保存，cookie 随响应下发
func (s *Session) Set(_ context.Context, key string, value []byte) error {
	s.session.Set(key, string(value))
	if err := s.session.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
