package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// output 所有组件日志共用的输出，SetOutput后对已创建的logger同样生效
var output = &switchWriter{w: os.Stderr}

type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

func init() {
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// Component 创建带component字段的子logger
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// SetOutput 切换日志输出
func SetOutput(w io.Writer) {
	output.set(w)
}
