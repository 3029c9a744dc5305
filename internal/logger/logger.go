package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New 创建全局使用的 zerolog，dev 环境输出 debug 级别并使用可读格式
func New(appEnv string) zerolog.Logger {
	return NewWithWriter(appEnv, os.Stdout)
}

func NewWithWriter(appEnv string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}
