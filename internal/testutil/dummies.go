// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O.
package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/formfetch/internal/logging"
	"github.com/raysh454/formfetch/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnMessages returns a copy of the recorded warnings.
func (l *DummyLogger) WarnMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Warns...)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// It answers every request with Status (default 200) and Body, or with Err
// when set. Requests are recorded.
type DummyWebClient struct {
	Status        int
	Body          string
	Err           error
	ResponseDelay time.Duration

	mu       sync.Mutex
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	status := d.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &webclient.Response{
		Request:    req,
		Body:       []byte(d.Body),
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

// Recorded returns a copy of the requests seen so far.
func (d *DummyWebClient) Recorded() []*webclient.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*webclient.Request(nil), d.Requests...)
}

func (d *DummyWebClient) Close() error { return nil }

// ─── GatedWebClient ────────────────────────────────────────────────────

// GatedCall is one request held by a GatedWebClient until released.
type GatedCall struct {
	Request *webclient.Request
	release chan string
}

// Release answers the call with a 200 and body.
func (c *GatedCall) Release(body string) {
	c.release <- body
}

// GatedWebClient hands every request to the test through Calls and blocks it
// until the test releases it or the request context ends.
type GatedWebClient struct {
	Calls chan *GatedCall
}

func NewGatedWebClient() *GatedWebClient {
	return &GatedWebClient{Calls: make(chan *GatedCall, 16)}
}

func (g *GatedWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	call := &GatedCall{Request: req, release: make(chan string, 1)}
	select {
	case g.Calls <- call:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case body := <-call.release:
		return &webclient.Response{Request: req, Body: []byte(body), StatusCode: http.StatusOK, FetchedAt: time.Now()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *GatedWebClient) Close() error { return nil }

// ─── Fields ────────────────────────────────────────────────────────────

// ErrDummyField is returned by FailingField.
var ErrDummyField = errors.New("dummy field failure")

// FailingField is a Source and Sink that always fails.
type FailingField struct{}

func (FailingField) Value(context.Context) (string, error) { return "", ErrDummyField }
func (FailingField) SetText(context.Context, string) error { return ErrDummyField }
