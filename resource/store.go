// Package resource implements the blocking collections tasks trade through:
// item stores (plain, filtered, sorted) and numeric containers, plus
// self-monitoring variants that record their quantity over time.
//
// All requests are lazy awaitables. Constructing a Get or Put records intent
// only; the request joins the store's wait queue when Begin runs, which is
// what lets a rehearsed task plan a Get without consuming a live item.
// Matching is deterministic: requests are considered in arrival order.
package resource

import (
	"github.com/troupekit/troupe/sim"
)

// StoreOptions configures construction of a Store.
type StoreOptions struct {
	// Capacity bounds the item count. Zero or negative means unbounded.
	Capacity int
	// Items seeds the store.
	Items []any
}

// WithCapacity bounds the store's item count.
func WithCapacity(n int) func(o *StoreOptions) {
	return func(o *StoreOptions) { o.Capacity = n }
}

// WithItems seeds the store with initial items.
func WithItems(items ...any) func(o *StoreOptions) {
	return func(o *StoreOptions) { o.Items = append(o.Items, items...) }
}

// Store is a FIFO item store. Gets block while the store is empty; Puts
// block while a bounded store is full. Waiting requests are satisfied in
// arrival order, and a plain get at the head of the queue blocks everyone
// behind it until an item arrives.
type Store struct {
	env      *sim.Environment
	capacity int
	items    []any
	getters  []*GetRequest
	putters  []*PutRequest
	onChange func(quantity float64)
}

// NewStore creates a Store bound to env.
func NewStore(env *sim.Environment, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{env: env, capacity: opts.Capacity, items: append([]any(nil), opts.Items...)}
}

// Len returns the current item count.
func (s *Store) Len() int { return len(s.items) }

// Capacity returns the configured bound, or 0 for unbounded.
func (s *Store) Capacity() int { return s.capacity }

// Items returns a copy of the stored items in FIFO order.
func (s *Store) Items() []any {
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

// Get creates a lazy request for the oldest item.
func (s *Store) Get(optFns ...func(o *sim.EventOptions)) *GetRequest {
	return &GetRequest{Event: sim.NewEvent(s.env, optFns...), store: s}
}

// Put creates a lazy request to add item.
func (s *Store) Put(item any, optFns ...func(o *sim.EventOptions)) *PutRequest {
	return &PutRequest{Event: sim.NewEvent(s.env, optFns...), store: s, item: item}
}

// GetRequest is a pending retrieval. Completes with the retrieved item as
// its value. Cancelling a pending request removes it from the wait queue
// without consuming anything; a request that already matched keeps its item.
type GetRequest struct {
	*sim.Event
	store  *Store
	filter func(item any) bool
	sorter func(item any) float64
}

// Begin joins the store's wait queue and matches immediately if possible.
func (r *GetRequest) Begin() error {
	r.store.getters = append(r.store.getters, r)
	return r.store.trigger()
}

// Cancel withdraws a pending request and lets the store retry the queue,
// since removing a blocked head can unblock the requests behind it.
func (r *GetRequest) Cancel() {
	if r.State() != sim.Pending {
		return
	}
	r.Event.Cancel()
	if err := r.store.trigger(); err != nil {
		r.store.env.Fail(err)
	}
}

// PutRequest is a pending insertion. Completes with the inserted item as
// its value once the store has room.
type PutRequest struct {
	*sim.Event
	store *Store
	item  any
}

// Begin joins the store's wait queue and matches immediately if possible.
func (r *PutRequest) Begin() error {
	r.store.putters = append(r.store.putters, r)
	return r.store.trigger()
}

// Item returns the item being inserted.
func (r *PutRequest) Item() any { return r.item }

// Cancel withdraws a pending request and lets the store retry the queue.
func (r *PutRequest) Cancel() {
	if r.State() != sim.Pending {
		return
	}
	r.Event.Cancel()
	if err := r.store.trigger(); err != nil {
		r.store.env.Fail(err)
	}
}

// trigger drains as much of both wait queues as the current contents allow.
// Runs after every Begin; puts are offered first so a same-step put can
// unblock an earlier get.
func (s *Store) trigger() error {
	for {
		s.prune()
		progressed := false

		// Puts are strictly FIFO: a full store blocks the whole queue.
		for len(s.putters) > 0 {
			if s.capacity > 0 && len(s.items) >= s.capacity {
				break
			}
			p := s.putters[0]
			s.putters = s.putters[1:]
			s.items = append(s.items, p.item)
			s.changed()
			if err := p.Event.SucceedAs(p, p.item); err != nil {
				return err
			}
			progressed = true
		}

		// Gets are scanned in arrival order. A filtered get that matches
		// nothing is skipped over; a plain get only blocks on empty.
		remaining := s.getters[:0]
		for i, g := range s.getters {
			idx := s.selectItem(g)
			if idx < 0 {
				if g.filter == nil && len(s.items) == 0 {
					remaining = append(remaining, s.getters[i:]...)
					break
				}
				remaining = append(remaining, g)
				continue
			}
			item := s.items[idx]
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			s.changed()
			if err := g.Event.SucceedAs(g, item); err != nil {
				return err
			}
			progressed = true
		}
		s.getters = remaining

		if !progressed {
			return nil
		}
	}
}

// selectItem picks the item index for g, or -1 when nothing qualifies.
// Plain gets take the oldest item; filtered gets take the oldest match;
// sorted gets take the minimal match by sort key.
func (s *Store) selectItem(g *GetRequest) int {
	if g.filter == nil {
		if len(s.items) == 0 {
			return -1
		}
		return 0
	}
	best := -1
	var bestKey float64
	for i, item := range s.items {
		if !g.filter(item) {
			continue
		}
		if g.sorter == nil {
			return i
		}
		key := g.sorter(item)
		if best < 0 || key < bestKey {
			best = i
			bestKey = key
		}
	}
	return best
}

// prune drops cancelled requests so they can never match.
func (s *Store) prune() {
	getters := s.getters[:0]
	for _, g := range s.getters {
		if g.State() == sim.Pending {
			getters = append(getters, g)
		}
	}
	s.getters = getters
	putters := s.putters[:0]
	for _, p := range s.putters {
		if p.State() == sim.Pending {
			putters = append(putters, p)
		}
	}
	s.putters = putters
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange(float64(len(s.items)))
	}
}
