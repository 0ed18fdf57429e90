package derived

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/questx-lab/poolwidget/internal/testutil"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(m interface{ Get() State[string] }) func() {
	return func() {
		s := m.Get()
		if s.Status != Ready {
			return
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		r.values = append(r.values, s.Value)
	}
}

func (r *recorder) published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func constant(v string) Producer[string] {
	return func(ctx context.Context) (string, error) { return v, nil }
}

func blocking(v string, release <-chan struct{}) Producer[string] {
	return func(ctx context.Context) (string, error) {
		<-release
		return v, nil
	}
}

func TestMemo_DiscardsSupersededResult(t *testing.T) {
	rec := &recorder{}
	var memo *Memo[string]
	memo = NewMemo(testutil.MockContext(), "", Options{Name: "test", OnChange: func() { rec.record(memo)() }})

	releaseA := make(chan struct{})
	require.True(t, memo.Update([]any{"A"}, blocking("a", releaseA)))
	require.True(t, memo.Update([]any{"B"}, constant("b")))

	close(releaseA)
	memo.Wait()

	require.Equal(t, State[string]{Status: Ready, Value: "b"}, memo.Get())
	require.Equal(t, []string{"b"}, rec.published())
}

func TestMemo_SlowLatestStillWins(t *testing.T) {
	memo := NewMemo(testutil.MockContext(), "init", Options{Name: "test"})

	releaseB := make(chan struct{})
	memo.Update([]any{"A"}, constant("a"))
	memo.Update([]any{"B"}, blocking("b", releaseB))

	require.Equal(t, Loading, memo.Get().Status)
	require.Equal(t, "init", memo.Get().Value)

	close(releaseB)
	memo.Wait()
	require.Equal(t, "b", memo.Get().Value)
}

func TestMemo_SameDepsDoNotRerun(t *testing.T) {
	var runs atomic.Int32
	producer := func(ctx context.Context) (string, error) {
		runs.Add(1)
		return "x", nil
	}

	p := &struct{ n int }{1}
	memo := NewMemo(testutil.MockContext(), "", Options{})
	require.True(t, memo.Update([]any{p, "DAI", 18}, producer))
	require.False(t, memo.Update([]any{p, "DAI", 18}, producer))
	// equal content, different identity
	require.True(t, memo.Update([]any{&struct{ n int }{1}, "DAI", 18}, producer))
	require.True(t, memo.Update([]any{nil, "DAI", 18}, producer))
	require.False(t, memo.Update([]any{nil, "DAI", 18}, producer))

	memo.Wait()
	require.Equal(t, int32(3), runs.Load())
}

func TestResponse_RefreshKeepsStaleValue(t *testing.T) {
	resp := NewResponse(testutil.MockContext(), "", Options{})

	resp.Update([]any{1}, constant("v1"))
	resp.Wait()
	require.Equal(t, "v1", resp.Get().Value)

	release := make(chan struct{})
	var calls atomic.Int32
	resp.Update([]any{2}, func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "v2", nil
		}
		<-release
		return "v3", nil
	})
	resp.Wait()
	require.Equal(t, State[string]{Status: Ready, Value: "v2"}, resp.Get())

	resp.Refresh()
	require.Equal(t, State[string]{Status: Ready, Value: "v2"}, resp.Get())

	close(release)
	resp.Wait()
	require.Equal(t, State[string]{Status: Ready, Value: "v3"}, resp.Get())
}

func TestResponse_RefreshBeforeUpdateIsNoop(t *testing.T) {
	resp := NewResponse(testutil.MockContext(), "init", Options{})
	resp.Refresh()
	resp.Wait()
	require.Equal(t, State[string]{Status: Loading, Value: "init"}, resp.Get())
}

func TestFailureKeepsPreviousValue(t *testing.T) {
	resp := NewResponse(testutil.MockContext(), "", Options{Name: "balance"})
	boom := errors.New("boom")

	var fail atomic.Bool
	resp.Update([]any{1}, func(ctx context.Context) (string, error) {
		if fail.Load() {
			return "", boom
		}
		return "100", nil
	})
	resp.Wait()

	fail.Store(true)
	resp.Refresh()
	resp.Wait()

	s := resp.Get()
	require.Equal(t, Failed, s.Status)
	require.ErrorIs(t, s.Err, boom)
	require.Equal(t, "100", s.Value)
	require.False(t, s.IsReady())
}

func TestClose_DiscardsInFlight(t *testing.T) {
	var changes atomic.Int32
	memo := NewMemo(testutil.MockContext(), "", Options{OnChange: func() { changes.Add(1) }})

	release := make(chan struct{})
	memo.Update([]any{1}, blocking("late", release))
	require.Equal(t, int32(1), changes.Load(), "loading is published")

	memo.Close()
	close(release)
	memo.Wait()

	require.Equal(t, Loading, memo.Get().Status)
	require.Equal(t, int32(1), changes.Load())
	require.False(t, memo.Update([]any{2}, constant("x")))
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "loading", Loading.String())
	require.Equal(t, "ready", Ready.String())
	require.Equal(t, "failed", Failed.String())
}

func TestHold(t *testing.T) {
	resp := NewResponse(testutil.MockContext(), "init", Options{})

	resp.Update([]any{"a"}, constant("v"))
	resp.Wait()
	require.Equal(t, "v", resp.Get().Value)

	require.True(t, resp.Hold([]any{nil}))
	require.False(t, resp.Hold([]any{nil}))
	require.Equal(t, State[string]{Status: Loading, Value: "init"}, resp.Get())

	resp.Refresh()
	resp.Wait()
	require.Equal(t, Loading, resp.Get().Status)

	// same deps as the hold but now with a producer
	require.True(t, resp.Update([]any{nil}, constant("w")))
	resp.Wait()
	require.Equal(t, "w", resp.Get().Value)
}

func TestFail(t *testing.T) {
	resp := NewResponse(testutil.MockContext(), "init", Options{})
	boom := errors.New("boom")

	resp.Update([]any{"a"}, constant("v"))
	resp.Wait()

	require.True(t, resp.Fail([]any{nil}, boom))
	require.False(t, resp.Fail([]any{nil}, boom))
	require.Equal(t, State[string]{Status: Failed, Value: "init", Err: boom}, resp.Get())

	resp.Refresh()
	resp.Wait()
	require.Equal(t, Failed, resp.Get().Status)

	// the same deps are held once the failure is gone
	require.True(t, resp.Hold([]any{nil}))
	require.Equal(t, Loading, resp.Get().Status)
	require.Nil(t, resp.Get().Err)
}

func TestMemo_Retry(t *testing.T) {
	memo := NewMemo(testutil.MockContext(), "", Options{Name: "ticket"})
	boom := errors.New("boom")

	var runs atomic.Int32
	memo.Update([]any{1}, func(ctx context.Context) (string, error) {
		if runs.Add(1) == 1 {
			return "", boom
		}
		return "0xcc", nil
	})
	memo.Wait()
	require.Equal(t, Failed, memo.Get().Status)

	memo.Retry()
	memo.Wait()
	require.Equal(t, State[string]{Status: Ready, Value: "0xcc"}, memo.Get())

	// a ready memo is not re-run
	memo.Retry()
	memo.Wait()
	require.Equal(t, int32(2), runs.Load())
}
