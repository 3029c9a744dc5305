package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownReactionKind = errors.New("unknown reaction kind")
	ErrUnknownTargetType   = errors.New("unknown target type")
)

// ReactionKind 表情回应类型，固定六种
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionClap  ReactionKind = "clap"
	ReactionWow   ReactionKind = "wow"
	ReactionSad   ReactionKind = "sad"
	ReactionAngry ReactionKind = "angry"
)

// ReactionKinds 按展示顺序列出全部回应类型
var ReactionKinds = [...]ReactionKind{
	ReactionLike,
	ReactionLove,
	ReactionClap,
	ReactionWow,
	ReactionSad,
	ReactionAngry,
}

// ParseReactionKind 解析回应类型，未知类型直接报错
func ParseReactionKind(s string) (ReactionKind, error) {
	k := ReactionKind(s)
	if k.index() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownReactionKind, s)
	}
	return k, nil
}

func (k ReactionKind) index() int {
	for i, kind := range ReactionKinds {
		if kind == k {
			return i
		}
	}
	return -1
}

// Valid reports whether k is one of the six kinds.
func (k ReactionKind) Valid() bool {
	return k.index() >= 0
}

// Column 返回聚合表中对应的计数列
func (k ReactionKind) Column() string {
	return string(k) + "_count"
}

// TargetType 回应目标：文章或评论
type TargetType string

const (
	TargetArticle TargetType = "article"
	TargetComment TargetType = "comment"
)

func ParseTargetType(s string) (TargetType, error) {
	switch t := TargetType(s); t {
	case TargetArticle, TargetComment:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTargetType, s)
}

// Target 被回应的对象
type Target struct {
	Type TargetType `json:"type"`
	ID   uint       `json:"id"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Type, t.ID)
}

// ReactionCounts 固定结构的计数记录，每种回应一列
type ReactionCounts struct {
	Like  int64 `gorm:"column:like_count;not null;default:0" json:"like"`
	Love  int64 `gorm:"column:love_count;not null;default:0" json:"love"`
	Clap  int64 `gorm:"column:clap_count;not null;default:0" json:"clap"`
	Wow   int64 `gorm:"column:wow_count;not null;default:0" json:"wow"`
	Sad   int64 `gorm:"column:sad_count;not null;default:0" json:"sad"`
	Angry int64 `gorm:"column:angry_count;not null;default:0" json:"angry"`
}

func (c *ReactionCounts) field(k ReactionKind) *int64 {
	switch k {
	case ReactionLike:
		return &c.Like
	case ReactionLove:
		return &c.Love
	case ReactionClap:
		return &c.Clap
	case ReactionWow:
		return &c.Wow
	case ReactionSad:
		return &c.Sad
	case ReactionAngry:
		return &c.Angry
	}
	return nil
}

// Get 返回某种回应的计数
func (c ReactionCounts) Get(k ReactionKind) int64 {
	if f := c.field(k); f != nil {
		return *f
	}
	return 0
}

// Add 调整计数，不会低于 0
func (c *ReactionCounts) Add(k ReactionKind, delta int64) {
	f := c.field(k)
	if f == nil {
		return
	}
	*f += delta
	if *f < 0 {
		*f = 0
	}
}

// Total 所有回应之和
func (c ReactionCounts) Total() int64 {
	return c.Like + c.Love + c.Clap + c.Wow + c.Sad + c.Angry
}

// ReactionSet 访客在某个目标上已激活的回应集合（位图）
type ReactionSet uint8

func NewReactionSet(kinds ...ReactionKind) ReactionSet {
	var s ReactionSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

func (s ReactionSet) Has(k ReactionKind) bool {
	i := k.index()
	return i >= 0 && s&(1<<i) != 0
}

func (s ReactionSet) With(k ReactionKind) ReactionSet {
	if i := k.index(); i >= 0 {
		return s | 1<<i
	}
	return s
}

func (s ReactionSet) Without(k ReactionKind) ReactionSet {
	if i := k.index(); i >= 0 {
		return s &^ (1 << i)
	}
	return s
}

// Kinds 按固定顺序返回集合中的回应
func (s ReactionSet) Kinds() []ReactionKind {
	kinds := make([]ReactionKind, 0, len(ReactionKinds))
	for _, k := range ReactionKinds {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (s ReactionSet) Empty() bool {
	return s == 0
}

func (s ReactionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Kinds())
}

func (s *ReactionSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var set ReactionSet
	for _, r := range raw {
		k, err := ParseReactionKind(r)
		if err != nil {
			return err
		}
		set = set.With(k)
	}
	*s = set
	return nil
}

// ReactionAggregate 每个目标一行的回应汇总
type ReactionAggregate struct {
	ID             uint       `gorm:"primaryKey" json:"-"`
	TargetID       uint       `gorm:"not null;uniqueIndex:idx_reaction_target" json:"target_id"`
	TargetType     TargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_reaction_target" json:"target_type"`
	ReactionCounts `gorm:"embedded"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserReaction 某访客对某目标激活了某种回应；存在即激活
type UserReaction struct {
	ID         uint         `gorm:"primaryKey" json:"-"`
	TargetID   uint         `gorm:"not null;uniqueIndex:idx_user_reaction" json:"target_id"`
	TargetType TargetType   `gorm:"type:varchar(16);not null;uniqueIndex:idx_user_reaction" json:"target_type"`
	Kind       ReactionKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_user_reaction" json:"kind"`
	VisitorID  string       `gorm:"size:64;not null;uniqueIndex:idx_user_reaction;index" json:"visitor_id"`
	CreatedAt  time.Time    `json:"created_at"`
}
