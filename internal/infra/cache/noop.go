package cache

import (
	"errors"
	"time"
)

// ErrMiss возвращается Noop на любой Get.
var ErrMiss = errors.New("cache: miss")

// Noop подставляется, когда Redis не сконфигурирован: Once всегда выполняет
// функцию, Get всегда промахивается.
type Noop struct{}

// NewNoop создаёт заглушку кэша.
func NewNoop() Noop { return Noop{} }

// Once всегда выполняет fn.
func (Noop) Once(_ string, _ time.Duration, fn func() error) error { return fn() }

// Set ничего не делает.
func (Noop) Set(string, []byte, time.Duration) error { return nil }

// Get всегда промахивается.
func (Noop) Get(string) ([]byte, error) { return nil, ErrMiss }
