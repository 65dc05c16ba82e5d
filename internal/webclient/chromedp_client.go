//go:build !(js && wasm)

package webclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/formfetch/internal/logging"
)

func registerPlatformBackends() {
	RegisterBackend(string(ClientChromedp), func(cfg Config, logger logging.Logger) (WebClient, error) {
		return NewChromedpClient(cfg, logger)
	})
}

// fetchScript runs inside the page. %s are a JSON string (URL) and a JSON
// object (fetch init).
const fetchScript = `(async () => {
  const r = await fetch(%s, %s);
  const headers = {};
  r.headers.forEach((v, k) => { headers[k] = v; });
  return { status: r.status, headers: headers, body: await r.text() };
})()`

type fetchResult struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

type fetchInit struct {
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// ChromedpClient issues requests through a headless browser's fetch(): each
// Do opens a tab on the target's origin, waits for the page to go idle and
// evaluates fetch there, so cookies, CORS and redirects follow browser rules.
// Response bodies are read as text.
type ChromedpClient struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	idleAfter     time.Duration
	timeout       time.Duration
	maxBody       int64
	logger        logging.Logger
}

// NewChromedpClient starts a browser. It fails when no Chrome can be launched.
func NewChromedpClient(cfg Config, logger logging.Logger, opts ...chromedp.ExecAllocatorOption) (*ChromedpClient, error) {
	componentLogger := logger.With(logging.Field{Key: "backend", Value: "chromedp"})

	allocOpts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	allocOpts = append(allocOpts, opts...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run launches the browser so a missing Chrome fails here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	idleAfter := cfg.IdleAfter
	if idleAfter <= 0 {
		idleAfter = 500 * time.Millisecond
	}

	componentLogger.Debug("created chromedp webclient",
		logging.Field{Key: "idle_after", Value: idleAfter.String()},
		logging.Field{Key: "headless", Value: cfg.Headless})

	return &ChromedpClient{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		idleAfter:     idleAfter,
		timeout:       cfg.Timeout,
		maxBody:       cfg.MaxBodyBytes,
		logger:        componentLogger,
	}, nil
}

// waitNetworkIdle closes the returned channel once no request has been in
// flight for idleAfter. The timer also runs from the start so a page that
// issues no requests still goes idle.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})
	startTimer()

	return idleChan
}

// originOf returns the page the fetch runs from.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "about:blank"
	}
	return u.Scheme + "://" + u.Host + "/"
}

func (c *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}

	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	defer cancel()
	if c.timeout > 0 {
		var tcancel context.CancelFunc
		tabCtx, tcancel = context.WithTimeout(tabCtx, c.timeout)
		defer tcancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	fi := fetchInit{Method: strings.ToUpper(req.Method)}
	if len(req.Headers) > 0 {
		fi.Headers = make(map[string]string, len(req.Headers))
		for k := range req.Headers {
			fi.Headers[k] = req.Headers.Get(k)
		}
	}
	if len(req.Body) > 0 {
		fi.Body = string(req.Body)
	}
	urlJSON, err := json.Marshal(req.URL)
	if err != nil {
		return nil, fmt.Errorf("encode url: %w", err)
	}
	initJSON, err := json.Marshal(fi)
	if err != nil {
		return nil, fmt.Errorf("encode fetch init: %w", err)
	}

	origin := originOf(req.URL)
	c.logger.Debug("opening origin page",
		logging.Field{Key: "origin", Value: origin},
		logging.Field{Key: "method", Value: fi.Method},
		logging.Field{Key: "url", Value: req.URL})

	idle := waitNetworkIdle(tabCtx, c.idleAfter)
	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate(origin)); err != nil {
		return nil, c.ctxErr(ctx, fmt.Errorf("navigate %s: %w", origin, err))
	}
	select {
	case <-idle:
	case <-tabCtx.Done():
		return nil, c.ctxErr(ctx, tabCtx.Err())
	}

	var out fetchResult
	start := time.Now()
	err = chromedp.Run(tabCtx, chromedp.Evaluate(
		fmt.Sprintf(fetchScript, urlJSON, initJSON),
		&out,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams { return p.WithAwaitPromise(true) },
	))
	if err != nil {
		c.logger.Warn("browser fetch failed",
			logging.Field{Key: "method", Value: fi.Method},
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, c.ctxErr(ctx, fmt.Errorf("browser fetch: %w", err))
	}

	if c.maxBody > 0 && int64(len(out.Body)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBody)
	}

	headers := make(http.Header, len(out.Headers))
	for k, v := range out.Headers {
		headers.Set(k, v)
	}

	return &Response{
		Request:    req,
		Headers:    headers,
		Body:       []byte(out.Body),
		StatusCode: out.Status,
		FetchedAt:  time.Now(),
		Elapsed:    time.Since(start),
	}, nil
}

// ctxErr prefers the caller's cancellation cause over chromedp's wrapping.
func (c *ChromedpClient) ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *ChromedpClient) Close() error {
	c.browserCancel()
	c.allocCancel()
	c.logger.Debug("closed chromedp webclient")
	return nil
}
