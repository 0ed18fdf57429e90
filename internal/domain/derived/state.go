package derived

import (
	"context"

	"github.com/questx-lab/poolwidget/pkg/enum"
)

type Status int

var (
	Loading = enum.New(Status(0), "loading")
	Ready   = enum.New(Status(1), "ready")
	Failed  = enum.New(Status(2), "failed")
)

func (s Status) String() string {
	return enum.ToString(s)
}

// State is what a subscriber sees. A failed state keeps the last published value so it is never
// mistaken for a fresh one.
type State[T any] struct {
	Status Status
	Value  T
	Err    error
}

func (s State[T]) IsReady() bool {
	return s.Status == Ready
}

type Producer[T any] func(ctx context.Context) (T, error)

type Options struct {
	// Name labels logs and failure metrics.
	Name string
	// OnChange is called after every published state, outside of any lock.
	OnChange func()
}
