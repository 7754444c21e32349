package resource

import "github.com/troupekit/troupe/sim"

// FilterStore retrieves items by predicate instead of FIFO position. A
// filtered get that matches nothing waits without blocking the requests
// behind it.
type FilterStore struct {
	*Store
}

// NewFilterStore creates a FilterStore bound to env.
func NewFilterStore(env *sim.Environment, optFns ...func(o *StoreOptions)) *FilterStore {
	return &FilterStore{Store: NewStore(env, optFns...)}
}

// Get creates a lazy request for the oldest item satisfying filter. A nil
// filter matches any item.
func (s *FilterStore) Get(filter func(item any) bool, optFns ...func(o *sim.EventOptions)) *GetRequest {
	if filter == nil {
		filter = func(any) bool { return true }
	}
	return &GetRequest{Event: sim.NewEvent(s.env, optFns...), store: s.Store, filter: filter}
}

// SortedFilterStore retrieves, among the items satisfying a predicate, the
// one minimizing a sort key. Useful when a task wants not just any matching
// item but the best one, such as the nearest or the least depleted.
type SortedFilterStore struct {
	*FilterStore
}

// NewSortedFilterStore creates a SortedFilterStore bound to env.
func NewSortedFilterStore(env *sim.Environment, optFns ...func(o *StoreOptions)) *SortedFilterStore {
	return &SortedFilterStore{FilterStore: NewFilterStore(env, optFns...)}
}

// GetSorted creates a lazy request for the matching item with the smallest
// sorter key. A nil filter matches any item; a nil sorter degrades to the
// plain filtered get.
func (s *SortedFilterStore) GetSorted(filter func(item any) bool, sorter func(item any) float64, optFns ...func(o *sim.EventOptions)) *GetRequest {
	r := s.FilterStore.Get(filter, optFns...)
	r.sorter = sorter
	return r
}
