//go:build !(js && wasm)

package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/fields"
	"github.com/raysh454/formfetch/internal/logging"
	"github.com/raysh454/formfetch/internal/utils"
)

const (
	valueScript = `(() => {
  const el = document.getElementById(%s);
  if (!el) return { ok: false, value: "" };
  return { ok: true, value: el.value === undefined || el.value === null ? "" : String(el.value) };
})()`
	textScript = `(() => {
  const el = document.getElementById(%s);
  if (!el) return { ok: false, value: "" };
  return { ok: true, value: el.innerText };
})()`
	setTextScript = `(() => {
  const el = document.getElementById(%s);
  if (!el) return false;
  el.innerText = %s;
  return true;
})()`
	setValueScript = `(() => {
  const el = document.getElementById(%s);
  if (!el) return false;
  el.value = %s;
  return true;
})()`
)

type elementRead struct {
	OK    bool   `json:"ok"`
	Value string `json:"value"`
}

type options struct {
	headless  bool
	idleAfter time.Duration
	alloc     []chromedp.ExecAllocatorOption
}

type Option func(*options)

// WithHeadless toggles headless Chrome. Default true.
func WithHeadless(headless bool) Option {
	return func(o *options) { o.headless = headless }
}

// WithIdleAfter sets how long the page must be quiet after load. Default 500ms.
func WithIdleAfter(d time.Duration) Option {
	return func(o *options) { o.idleAfter = d }
}

// WithAllocatorOptions passes extra flags to the Chrome allocator.
func WithAllocatorOptions(opts ...chromedp.ExecAllocatorOption) Option {
	return func(o *options) { o.alloc = append(o.alloc, opts...) }
}

// Page is a loaded page in its own browser. Element reads and writes go
// through the DevTools protocol against the live DOM.
type Page struct {
	url         string
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      logging.Logger
}

// Open launches Chrome, navigates to pageURL and waits for the body to be
// ready. ctx bounds only the opening; the page lives until Close.
func Open(ctx context.Context, pageURL string, logger logging.Logger, opts ...Option) (*Page, error) {
	o := options{headless: true, idleAfter: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}

	allocOpts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	if !o.headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	allocOpts = append(allocOpts, o.alloc...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	pageCtx, cancel := chromedp.NewContext(allocCtx)

	p := &Page{
		url:         pageURL,
		ctx:         pageCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      logger.With(logging.Field{Key: "component", Value: "browser"}),
	}

	// An empty Run allocates the browser and tab on the page context itself.
	if err := chromedp.Run(pageCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	err := p.run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(o.idleAfter),
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("open %s: %w", pageURL, err)
	}
	p.logger.Info("page opened", logging.Field{Key: "url", Value: pageURL})
	return p, nil
}

// run executes actions on the page tab, stopping early when ctx ends.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *Page) URL() string { return p.url }

// HTML returns the current serialized document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// Triples discovers the field triples on the current document.
func (p *Page) Triples(ctx context.Context) ([]Triple, error) {
	html, err := p.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return DiscoverTriples(strings.NewReader(html))
}

// Bindings discovers triples and binds every complete one. Triples without a
// response element are logged and left unbound.
func (p *Page) Bindings(ctx context.Context) (dispatch.Bindings, error) {
	triples, err := p.Triples(ctx)
	if err != nil {
		return nil, err
	}
	b := dispatch.Bindings{}
	for _, t := range triples {
		if !t.Complete() {
			p.logger.Warn("skipping incomplete triple",
				logging.Field{Key: "method", Value: t.Method},
				logging.Field{Key: "url_id", Value: t.URLID})
			continue
		}
		binding := dispatch.Binding{
			URL:      &pageURLSource{el: p.Element(t.URLID), base: p.url},
			Response: p.Element(t.ResponseID),
		}
		if t.DataID != "" {
			binding.Data = p.Element(t.DataID)
		}
		b.Set(t.Method, binding)
	}
	p.logger.Debug("bound page triples", logging.Field{Key: "methods", Value: b.Methods()})
	return b, nil
}

// pageURLSource resolves the element's value against the page URL, as the
// page's own fetch() would.
type pageURLSource struct {
	el   *Element
	base string
}

func (s *pageURLSource) Value(ctx context.Context) (string, error) {
	raw, err := s.el.Value(ctx)
	if err != nil {
		return "", err
	}
	return utils.ResolveURL(s.base, raw)
}

// Element returns a field backed by the element with id. The element is
// looked up on every access.
func (p *Page) Element(id string) *Element {
	return &Element{page: p, id: id}
}

func (p *Page) Close() {
	p.cancel()
	p.allocCancel()
}

// Element reads an element's value and writes its innerText. Both fail with
// fields.ErrElementMissing once the element is gone.
type Element struct {
	page *Page
	id   string
}

func (e *Element) ID() string { return e.id }

func (e *Element) Value(ctx context.Context) (string, error) {
	return e.read(ctx, valueScript)
}

// Text returns the element's innerText.
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.read(ctx, textScript)
}

func (e *Element) SetText(ctx context.Context, text string) error {
	return e.write(ctx, setTextScript, text)
}

// SetValue replaces the element's value, as typing into it would.
func (e *Element) SetValue(ctx context.Context, value string) error {
	return e.write(ctx, setValueScript, value)
}

func (e *Element) read(ctx context.Context, script string) (string, error) {
	idJSON, err := json.Marshal(e.id)
	if err != nil {
		return "", err
	}
	var out elementRead
	if err := e.page.run(ctx, chromedp.Evaluate(fmt.Sprintf(script, idJSON), &out)); err != nil {
		return "", fmt.Errorf("read #%s: %w", e.id, err)
	}
	if !out.OK {
		return "", fmt.Errorf("#%s: %w", e.id, fields.ErrElementMissing)
	}
	return out.Value, nil
}

func (e *Element) write(ctx context.Context, script, value string) error {
	idJSON, err := json.Marshal(e.id)
	if err != nil {
		return err
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var ok bool
	if err := e.page.run(ctx, chromedp.Evaluate(fmt.Sprintf(script, idJSON, valueJSON), &ok)); err != nil {
		return fmt.Errorf("write #%s: %w", e.id, err)
	}
	if !ok {
		return fmt.Errorf("#%s: %w", e.id, fields.ErrElementMissing)
	}
	return nil
}
