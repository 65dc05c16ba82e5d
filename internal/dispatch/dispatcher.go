// Package dispatch sends one HTTP request per trigger: it reads a URL and
// optional JSON data from a field triple, performs the request and writes the
// rendered response, or an "Error: ..." line, to the triple's output field.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/formfetch/internal/logging"
	"github.com/raysh454/formfetch/internal/webclient"
)

// Observer is told about every finished task, after the sink write.
type Observer func(ctx context.Context, task *Task, res Result)

type Option func(*Dispatcher)

// WithVariant selects body and rendering rules. Default VariantJSON.
func WithVariant(v Variant) Option {
	return func(d *Dispatcher) { d.variant = v }
}

// WithTimeout bounds each dispatch. Zero, the default, means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// WithOrdering selects how overlapping dispatches to one target are
// written. Default OrderLatestInvocation.
func WithOrdering(o Ordering) Option {
	return func(d *Dispatcher) { d.ordering = o }
}

// WithObserver adds an observer.
func WithObserver(obs Observer) Option {
	return func(d *Dispatcher) {
		if obs != nil {
			d.observers = append(d.observers, obs)
		}
	}
}

// Dispatcher runs dispatches over a fixed set of bindings. Safe for
// concurrent use.
type Dispatcher struct {
	client    webclient.WebClient
	bindings  Bindings
	logger    logging.Logger
	variant   Variant
	timeout   time.Duration
	ordering  Ordering
	observers []Observer
	seq       *sequencer
	wg        sync.WaitGroup
}

func New(client webclient.WebClient, bindings Bindings, logger logging.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:   client,
		bindings: bindings,
		logger:   logger.With(logging.Field{Key: "component", Value: "dispatcher"}),
		variant:  VariantJSON,
		ordering: OrderLatestInvocation,
		seq:      newSequencer(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch starts a dispatch for method and returns its task. A missing
// binding is reported here, wrapping ErrConfigurationMissing, and nothing is
// written. The task runs until it completes, ctx is canceled or the timeout
// expires.
func (d *Dispatcher) Dispatch(ctx context.Context, method string) (*Task, error) {
	method = normalizeMethod(method)
	binding, err := d.bindings.Lookup(method)
	if err != nil {
		d.logger.Warn("dispatch rejected",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}
	return d.start(ctx, method, binding), nil
}

// DispatchWith dispatches method over b instead of a configured binding.
// Writes are ordered against every other dispatch to b's Target.
func (d *Dispatcher) DispatchWith(ctx context.Context, method string, b Binding) (*Task, error) {
	method = normalizeMethod(method)
	if method == "" {
		return nil, fmt.Errorf("%w: empty method", ErrConfigurationMissing)
	}
	binding, err := b.validate(method)
	if err != nil {
		d.logger.Warn("dispatch rejected",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}
	return d.start(ctx, method, binding), nil
}

func (d *Dispatcher) start(ctx context.Context, method string, binding Binding) *Task {
	taskCtx, cancel := context.WithCancel(ctx)
	if d.timeout > 0 {
		var tcancel context.CancelFunc
		taskCtx, tcancel = context.WithTimeout(taskCtx, d.timeout)
		inner := cancel
		cancel = func() { tcancel(); inner() }
	}

	task := &Task{
		ID:        uuid.NewString(),
		Method:    method,
		Target:    binding.Target,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	token := d.seq.next(binding.Target)

	d.logger.Debug("dispatching",
		logging.Field{Key: "task_id", Value: task.ID},
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "target", Value: binding.Target})

	d.wg.Add(1)
	go d.run(taskCtx, task, binding, token)
	return task
}

// Wait blocks until every dispatch started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, task *Task, b Binding, token uint64) {
	defer d.wg.Done()
	defer close(task.done)
	defer task.cancel()

	res := d.execute(ctx, task.Method, b)
	// The write and observers must still happen after a timeout.
	after := context.WithoutCancel(ctx)

	// A cancel that lands after the request returned still suppresses the
	// write. Timeouts are not cancels and are rendered below.
	if errors.Is(ctx.Err(), context.Canceled) {
		res.Err = fmt.Errorf("dispatch canceled: %w", context.Canceled)
		d.seq.retract(task.Target, token)
		d.logger.Info("dispatch canceled",
			logging.Field{Key: "task_id", Value: task.ID},
			logging.Field{Key: "method", Value: task.Method})
	} else {
		if res.Err != nil {
			res.Text = RenderError(res.Err)
			d.logger.Warn("dispatch failed",
				logging.Field{Key: "task_id", Value: task.ID},
				logging.Field{Key: "method", Value: task.Method},
				logging.Field{Key: "error", Value: res.Err.Error()})
		}
		stale, err := d.seq.write(task.Target, token, d.ordering, func() error {
			return b.Response.SetText(after, res.Text)
		})
		res.Stale = stale
		switch {
		case stale:
			d.logger.Debug("discarded stale result",
				logging.Field{Key: "task_id", Value: task.ID},
				logging.Field{Key: "target", Value: task.Target})
		case err != nil:
			res.WriteErr = err
			d.logger.Warn("writing response field",
				logging.Field{Key: "task_id", Value: task.ID},
				logging.Field{Key: "target", Value: task.Target},
				logging.Field{Key: "error", Value: err.Error()})
		default:
			res.Written = true
		}
	}

	res.EndedAt = time.Now()
	task.result = res

	d.logger.Info("dispatch finished",
		logging.Field{Key: "task_id", Value: task.ID},
		logging.Field{Key: "method", Value: task.Method},
		logging.Field{Key: "status", Value: res.StatusCode},
		logging.Field{Key: "written", Value: res.Written},
		logging.Field{Key: "duration", Value: res.EndedAt.Sub(task.StartedAt).String()})

	for _, obs := range d.observers {
		obs(after, task, res)
	}
}

// execute reads the fields, sends the request and renders the response.
func (d *Dispatcher) execute(ctx context.Context, method string, b Binding) Result {
	var res Result

	url, err := b.URL.Value(ctx)
	if err != nil {
		res.Err = fmt.Errorf("read url field: %w", err)
		return res
	}
	var data string
	if b.Data != nil {
		if data, err = b.Data.Value(ctx); err != nil {
			res.Err = fmt.Errorf("read data field: %w", err)
			return res
		}
	}

	req, err := BuildRequest(d.variant, method, url, data)
	if err != nil {
		res.Err = err
		return res
	}
	res.Request = req

	d.logger.Debug("sending request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "body_bytes", Value: len(req.Body)})

	resp, err := d.client.Do(ctx, req)
	if err != nil {
		res.Err = err
		return res
	}
	res.StatusCode = resp.StatusCode
	d.logger.Debug("received response",
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "content_type", Value: resp.MediaType()},
		logging.Field{Key: "elapsed", Value: resp.Elapsed.String()})

	text, err := d.variant.Render(resp)
	if err != nil {
		res.Err = err
		return res
	}
	res.Text = text
	return res
}
