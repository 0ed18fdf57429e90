package derived

import (
	"context"
	"reflect"
	"sync"

	"github.com/questx-lab/poolwidget/internal/common"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
)

// core runs producers and publishes only the result of the latest run. Every dependency change,
// refresh or close bumps version; a result whose version is no longer current is dropped on
// arrival. In-flight producers are never interrupted.
type core[T any] struct {
	mu sync.Mutex
	wg sync.WaitGroup

	ctx  context.Context
	opts Options
	init T

	state    State[T]
	version  uint64
	deps     []any
	producer Producer[T]
	started  bool
	closed   bool
}

func newCore[T any](ctx context.Context, init T, opts Options) *core[T] {
	return &core[T]{
		ctx:   ctx,
		opts:  opts,
		init:  init,
		state: State[T]{Status: Loading, Value: init},
	}
}

func (c *core[T]) Get() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Update installs producer for deps. If deps equal the current ones nothing happens and false is
// returned. Otherwise the state goes back to loading with the initial value and producer runs.
func (c *core[T]) Update(deps []any, producer Producer[T]) bool {
	c.mu.Lock()
	if c.closed || (c.started && c.producer != nil && sameDeps(c.deps, deps)) {
		c.mu.Unlock()
		return false
	}

	c.started = true
	c.deps = append([]any(nil), deps...)
	c.producer = producer
	c.version++
	c.state = State[T]{Status: Loading, Value: c.init}
	version := c.version
	c.mu.Unlock()

	c.notify()
	c.run(version, producer)
	return true
}

// Hold is Update for dependencies that cannot be read yet: the state goes back to loading and
// stays there until a later Update. Refresh does nothing while held.
func (c *core[T]) Hold(deps []any) bool {
	c.mu.Lock()
	return c.park(deps, State[T]{Status: Loading, Value: c.init})
}

// Fail is Hold for dependencies that could not be read: the state fails with err and stays
// failed until a later Update.
func (c *core[T]) Fail(deps []any, err error) bool {
	return c.park(deps, State[T]{Status: Failed, Value: c.init, Err: err})
}

func (c *core[T]) park(deps []any, state State[T]) bool {
	c.mu.Lock()
	if c.closed || (c.started && c.producer == nil && sameDeps(c.deps, deps) &&
		c.state.Status == state.Status && errText(c.state.Err) == errText(state.Err)) {
		c.mu.Unlock()
		return false
	}

	c.started = true
	c.deps = append([]any(nil), deps...)
	c.producer = nil
	c.version++
	c.state = state
	c.mu.Unlock()

	c.notify()
	return true
}

func (c *core[T]) refresh(onlyFailed bool) {
	c.mu.Lock()
	if c.closed || !c.started || c.producer == nil || (onlyFailed && c.state.Status != Failed) {
		c.mu.Unlock()
		return
	}

	c.version++
	version, producer := c.version, c.producer
	c.mu.Unlock()

	c.run(version, producer)
}

func (c *core[T]) run(version uint64, producer Producer[T]) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		value, err := producer(c.ctx)

		c.mu.Lock()
		if c.closed || version != c.version {
			c.mu.Unlock()
			return
		}

		if err != nil {
			c.state = State[T]{Status: Failed, Value: c.state.Value, Err: err}
		} else {
			c.state = State[T]{Status: Ready, Value: value}
		}
		c.mu.Unlock()

		if err != nil {
			xcontext.Logger(c.ctx).Warnf("Cannot derive %s: %v", c.opts.Name, err)
			common.CountChainReadFailure(c.opts.Name)
		}

		c.notify()
	}()
}

func (c *core[T]) notify() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

// Close detaches the subscriber. Results arriving later are discarded.
func (c *core[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.version++
}

// Wait blocks until every started producer has returned.
func (c *core[T]) Wait() {
	c.wg.Wait()
}

func errText(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

func sameDeps(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !sameDep(a[i], b[i]) {
			return false
		}
	}

	return true
}

// sameDep compares by identity for pointers and interfaces holding pointers, by value otherwise.
func sameDep(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	if ta.Comparable() {
		return a == b
	}

	return reflect.DeepEqual(a, b)
}

// Memo recomputes its value whenever its dependencies change.
type Memo[T any] struct {
	*core[T]
}

func NewMemo[T any](ctx context.Context, init T, opts Options) *Memo[T] {
	return &Memo[T]{core: newCore(ctx, init, opts)}
}

// Retry re-runs the producer if its last run failed. The failed state stays visible until the
// new result is published.
func (m *Memo[T]) Retry() {
	m.refresh(true)
}

// Response is a Memo that can also be re-run on demand.
type Response[T any] struct {
	*core[T]
}

func NewResponse[T any](ctx context.Context, init T, opts Options) *Response[T] {
	return &Response[T]{core: newCore(ctx, init, opts)}
}

// Refresh re-runs the last producer with unchanged dependencies. The current value stays
// visible until the new one is published.
func (r *Response[T]) Refresh() {
	r.refresh(false)
}
