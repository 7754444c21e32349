package sim

import (
	"math/rand"
	"sort"

	"github.com/troupekit/troupe/logging"
)

// NamedEntity is anything that can be registered in a Stage entity group.
type NamedEntity interface {
	EntityName() string
}

// StageOptions configures construction of a Stage.
type StageOptions struct {
	// InitialTime is the starting clock value.
	InitialTime float64
	// Seed seeds the stage's random generator. Ignored when Random is set.
	Seed int64
	// Random overrides the seeded generator entirely.
	Random *rand.Rand
	// Logger receives structured diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// TimeUnit is a human label for the clock ("hr", "min"). Informational.
	TimeUnit string
}

// WithSeed seeds the stage's random generator.
func WithSeed(seed int64) func(o *StageOptions) {
	return func(o *StageOptions) { o.Seed = seed }
}

// WithRandom supplies a random generator directly.
func WithRandom(rng *rand.Rand) func(o *StageOptions) {
	return func(o *StageOptions) { o.Random = rng }
}

// WithLogger sets the stage logger.
func WithLogger(l logging.Logger) func(o *StageOptions) {
	return func(o *StageOptions) { o.Logger = l }
}

// WithTimeUnit sets the informational time unit label.
func WithTimeUnit(unit string) func(o *StageOptions) {
	return func(o *StageOptions) { o.TimeUnit = unit }
}

// WithInitialTime sets the starting clock value.
func WithInitialTime(t float64) func(o *StageOptions) {
	return func(o *StageOptions) { o.InitialTime = t }
}

// Stage is the explicit bag of simulation-wide singletons: the environment,
// the seeded random source, the logger, add-once shared variables, and the
// entity registry. Everything a model would otherwise reach into ambient
// context for is carried here and passed explicitly.
//
// A Stage and everything hanging off it belong to a single goroutine.
type Stage struct {
	env      *Environment
	random   *rand.Rand
	logger   logging.Logger
	timeUnit string
	vars     map[string]any
	groups   map[string][]NamedEntity
}

// NewStage creates a Stage with a fresh Environment.
func NewStage(optFns ...func(o *StageOptions)) *Stage {
	opts := StageOptions{Logger: logging.NoOpLogger{}, TimeUnit: "hr"}
	for _, fn := range optFns {
		fn(&opts)
	}
	rng := opts.Random
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	env := NewEnvironment(func(o *EnvironmentOptions) {
		o.InitialTime = opts.InitialTime
		o.Logger = opts.Logger
	})
	return &Stage{
		env:      env,
		random:   rng,
		logger:   opts.Logger,
		timeUnit: opts.TimeUnit,
		vars:     map[string]any{},
		groups:   map[string][]NamedEntity{},
	}
}

// Env returns the live environment.
func (s *Stage) Env() *Environment { return s.env }

// Now returns the current simulated time.
func (s *Stage) Now() float64 { return s.env.Now() }

// Random returns the stage's random generator.
func (s *Stage) Random() *rand.Rand { return s.random }

// Logger returns the stage logger.
func (s *Stage) Logger() logging.Logger { return s.logger }

// TimeUnit returns the informational time unit label.
func (s *Stage) TimeUnit() string { return s.timeUnit }

// SetVar stores a shared variable. Variables are add-once: redefining an
// existing name is a ConfigurationError, which keeps model components from
// silently clobbering each other's singletons.
func (s *Stage) SetVar(name string, value any) error {
	if _, ok := s.vars[name]; ok {
		return NewConfigurationError("stage variable %q is already set", name)
	}
	s.vars[name] = value
	return nil
}

// Var looks up a shared variable.
func (s *Stage) Var(name string) (any, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// MustVar looks up a shared variable and errors when it is missing.
func (s *Stage) MustVar(name string) (any, error) {
	v, ok := s.vars[name]
	if !ok {
		return nil, NewConfigurationError("stage variable %q is not set", name)
	}
	return v, nil
}

// RegisterEntity adds e to the named group. Groups are append-only.
func (s *Stage) RegisterEntity(group string, e NamedEntity) {
	s.groups[group] = append(s.groups[group], e)
}

// EntityGroup returns a copy of the named group's members.
func (s *Stage) EntityGroup(group string) []NamedEntity {
	members := s.groups[group]
	out := make([]NamedEntity, len(members))
	copy(out, members)
	return out
}

// EntityGroupNames returns the sorted group names.
func (s *Stage) EntityGroupNames() []string {
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
