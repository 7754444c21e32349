package sim

// MockEnvironment is the synthetic clock used while rehearsing. It only
// advances; nothing can be scheduled on it, so a rehearsal that accidentally
// reaches for the scheduler fails loudly instead of perturbing a live run.
type MockEnvironment struct {
	now float64
}

// NewMockEnvironment creates a mock clock starting at start.
func NewMockEnvironment(start float64) *MockEnvironment {
	return &MockEnvironment{now: start}
}

// Now returns the current synthetic time.
func (m *MockEnvironment) Now() float64 { return m.now }

// Advance moves the synthetic clock forward by d.
func (m *MockEnvironment) Advance(d float64) error {
	if d < 0 {
		return NewSimulationError("cannot advance a mock clock by %f", d)
	}
	m.now += d
	return nil
}
