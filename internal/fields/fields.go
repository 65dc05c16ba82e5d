// Package fields holds the value sources and text sinks a dispatch reads its
// URL and data from and writes its rendered response to.
package fields

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrElementMissing is returned by adapters whose backing element has gone
// away since it was bound.
var ErrElementMissing = errors.New("element missing")

// Source yields the current value of an input field.
type Source interface {
	Value(ctx context.Context) (string, error)
}

// Sink receives the text of an output field. Each call replaces the previous
// text.
type Sink interface {
	SetText(ctx context.Context, text string) error
}

// Text is an in-memory field usable as both Source and Sink. Safe for
// concurrent use.
type Text struct {
	mu     sync.Mutex
	value  string
	writes int
}

// NewText returns a Text holding initial.
func NewText(initial string) *Text {
	return &Text{value: initial}
}

func (t *Text) Value(_ context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, nil
}

func (t *Text) SetText(_ context.Context, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = text
	t.writes++
	return nil
}

// Set replaces the value without counting it as a write.
func (t *Text) Set(value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = value
}

// String returns the current value.
func (t *Text) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Writes reports how many times SetText has been called.
func (t *Text) Writes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writes
}

// Static is a Source with a fixed value.
type Static string

func (s Static) Value(_ context.Context) (string, error) {
	return string(s), nil
}

// writerSink writes each text followed by a newline.
type writerSink struct {
	mu sync.Mutex
	w  io.Writer
}

// WriterSink returns a Sink printing to w.
func WriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) SetText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.w, text); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}
