package txrequest

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/exp/slices"
)

const (
	// maxEarlyNotifications bounds notifications kept for ids that are not registered yet.
	maxEarlyNotifications = 64
	// maxResolved bounds the ids remembered as resolved. A duplicate notification for an id
	// forgotten since is buffered as early and never matched, which is just as inert.
	maxResolved = 1024
)

type entry struct {
	request   *Request
	onSettled SettleFunc
}

type notification struct {
	confirmed bool
	hash      common.Hash
}

// pendingRegistry maps correlation ids to their settle callback. Each id resolves at most once;
// later notifications for it are ignored. A notification that overtakes its registration (the
// host may answer before the submit call returns) is kept until the id is registered.
//
// Only the Manager touches it, always under the Manager's lock.
type pendingRegistry struct {
	pending       map[string]entry
	resolved      map[string]struct{}
	resolvedOrder []string
	early         map[string]notification
	earlyOrder    []string
}

func newPendingRegistry() *pendingRegistry {
	return &pendingRegistry{
		pending:  make(map[string]entry),
		resolved: make(map[string]struct{}),
		early:    make(map[string]notification),
	}
}

// register adds id. If a notification for id already arrived it is returned and id is resolved.
func (r *pendingRegistry) register(id string, e entry) (notification, bool) {
	if n, ok := r.early[id]; ok {
		delete(r.early, id)
		if i := slices.Index(r.earlyOrder, id); i >= 0 {
			r.earlyOrder = slices.Delete(r.earlyOrder, i, i+1)
		}
		r.markResolved(id)
		return n, true
	}

	r.pending[id] = e
	return notification{}, false
}

// resolve removes and returns the entry of id. It reports false for ids already resolved and
// for ids not registered yet, buffering the latter.
func (r *pendingRegistry) resolve(id string, n notification) (entry, bool) {
	if _, ok := r.resolved[id]; ok {
		return entry{}, false
	}

	e, ok := r.pending[id]
	if !ok {
		r.buffer(id, n)
		return entry{}, false
	}

	delete(r.pending, id)
	r.markResolved(id)
	return e, true
}

func (r *pendingRegistry) markResolved(id string) {
	if len(r.resolvedOrder) >= maxResolved {
		oldest := r.resolvedOrder[0]
		r.resolvedOrder = r.resolvedOrder[1:]
		delete(r.resolved, oldest)
	}

	r.resolved[id] = struct{}{}
	r.resolvedOrder = append(r.resolvedOrder, id)
}

func (r *pendingRegistry) buffer(id string, n notification) {
	if _, ok := r.early[id]; ok {
		return
	}

	if len(r.earlyOrder) >= maxEarlyNotifications {
		oldest := r.earlyOrder[0]
		r.earlyOrder = r.earlyOrder[1:]
		delete(r.early, oldest)
	}

	r.early[id] = n
	r.earlyOrder = append(r.earlyOrder, id)
}

func (r *pendingRegistry) requests() []*Request {
	requests := make([]*Request, 0, len(r.pending))
	for _, e := range r.pending {
		requests = append(requests, e.request)
	}

	return requests
}
