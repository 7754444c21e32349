package resource

import "github.com/troupekit/troupe/sim"

// Reading is one point of a recorded quantity history.
type Reading struct {
	Time     float64
	Quantity float64
}

// recorder accumulates (time, quantity) readings, skipping a reading whose
// quantity equals the previous one.
type recorder struct {
	env      *sim.Environment
	readings []Reading
}

func (r *recorder) record(q float64) {
	if n := len(r.readings); n > 0 && r.readings[n-1].Quantity == q {
		return
	}
	r.readings = append(r.readings, Reading{Time: r.env.Now(), Quantity: q})
}

func (r *recorder) snapshot() []Reading {
	out := make([]Reading, len(r.readings))
	copy(out, r.readings)
	return out
}

// SelfMonitoringStore is a Store that records its item count over time.
type SelfMonitoringStore struct {
	*Store
	rec recorder
}

// NewSelfMonitoringStore creates a monitoring Store bound to env.
func NewSelfMonitoringStore(env *sim.Environment, optFns ...func(o *StoreOptions)) *SelfMonitoringStore {
	m := &SelfMonitoringStore{Store: NewStore(env, optFns...)}
	m.rec.env = env
	m.Store.onChange = m.rec.record
	m.rec.record(float64(m.Len()))
	return m
}

// Readings returns a copy of the recorded item-count history.
func (m *SelfMonitoringStore) Readings() []Reading { return m.rec.snapshot() }

// SelfMonitoringFilterStore is a FilterStore that records its item count.
type SelfMonitoringFilterStore struct {
	*FilterStore
	rec recorder
}

// NewSelfMonitoringFilterStore creates a monitoring FilterStore bound to env.
func NewSelfMonitoringFilterStore(env *sim.Environment, optFns ...func(o *StoreOptions)) *SelfMonitoringFilterStore {
	m := &SelfMonitoringFilterStore{FilterStore: NewFilterStore(env, optFns...)}
	m.rec.env = env
	m.Store.onChange = m.rec.record
	m.rec.record(float64(m.Len()))
	return m
}

// Readings returns a copy of the recorded item-count history.
func (m *SelfMonitoringFilterStore) Readings() []Reading { return m.rec.snapshot() }

// SelfMonitoringSortedFilterStore is a SortedFilterStore that records its
// item count.
type SelfMonitoringSortedFilterStore struct {
	*SortedFilterStore
	rec recorder
}

// NewSelfMonitoringSortedFilterStore creates a monitoring SortedFilterStore
// bound to env.
func NewSelfMonitoringSortedFilterStore(env *sim.Environment, optFns ...func(o *StoreOptions)) *SelfMonitoringSortedFilterStore {
	m := &SelfMonitoringSortedFilterStore{SortedFilterStore: NewSortedFilterStore(env, optFns...)}
	m.rec.env = env
	m.Store.onChange = m.rec.record
	m.rec.record(float64(m.Len()))
	return m
}

// Readings returns a copy of the recorded item-count history.
func (m *SelfMonitoringSortedFilterStore) Readings() []Reading { return m.rec.snapshot() }

// SelfMonitoringContainer is a Container that records its level over time.
type SelfMonitoringContainer struct {
	*Container
	rec recorder
}

// NewSelfMonitoringContainer creates a monitoring Container bound to env.
func NewSelfMonitoringContainer(env *sim.Environment, optFns ...func(o *ContainerOptions)) *SelfMonitoringContainer {
	m := &SelfMonitoringContainer{Container: NewContainer(env, optFns...)}
	m.rec.env = env
	m.Container.onChange = m.rec.record
	m.rec.record(m.Level())
	return m
}

// Readings returns a copy of the recorded level history.
func (m *SelfMonitoringContainer) Readings() []Reading { return m.rec.snapshot() }
