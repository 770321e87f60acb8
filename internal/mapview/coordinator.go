package mapview

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/livability-map/internal/dataset"
	"github.com/sells-group/livability-map/internal/scorer"
)

// DatasetLoader fetches a feature collection from a source.
type DatasetLoader interface {
	Load(ctx context.Context, source string) (*dataset.Collection, error)
}

// Options configures a Coordinator.
type Options struct {
	Source        string
	Defaults      scorer.Weights
	Property      string
	TopN          int
	RescoreOnLoad bool
	// Simplify is the Douglas-Peucker tolerance applied to loaded geometry.
	// Zero keeps geometry as loaded.
	Simplify float64
}

// Coordinator owns the view state. Actions are applied one at a time and
// each is followed by a fresh render, so the map, legend and top list never
// disagree about weights or breaks.
type Coordinator struct {
	mu     sync.RWMutex
	state  State
	frame  Frame
	loader DatasetLoader
	opts   Options
}

// NewCoordinator creates a Coordinator with no features loaded.
func NewCoordinator(loader DatasetLoader, opts Options) *Coordinator {
	s := NewState(opts.Defaults, opts.Property, opts.RescoreOnLoad)
	return &Coordinator{
		state:  s,
		frame:  Render(s, opts.TopN),
		loader: loader,
		opts:   opts,
	}
}

// Dispatch reduces a into the current state and re-renders. On error the
// state is unchanged.
func (c *Coordinator) Dispatch(a Action) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(a)
}

// Update builds an action from the current state and applies it under the
// same lock, so read-modify-write changes such as partial weight edits
// cannot interleave.
func (c *Coordinator) Update(build func(State) (Action, error)) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, err := build(c.state)
	if err != nil {
		return c.frame, err
	}
	return c.apply(a)
}

func (c *Coordinator) apply(a Action) (Frame, error) {
	next, err := Reduce(c.state, a)
	if err != nil {
		return c.frame, err
	}
	c.state = next
	c.frame = Render(next, c.opts.TopN)

	zap.L().Debug("mapview: action applied",
		zap.Stringer("action", a.Kind),
		zap.Uint64("version", next.Version),
		zap.String("property", next.Context.Property),
	)
	return c.frame, nil
}

// Reload fetches the configured source and replaces the features. A failed
// fetch is logged and leaves the current map untouched.
func (c *Coordinator) Reload(ctx context.Context) (Frame, error) {
	return c.LoadFrom(ctx, c.opts.Source)
}

// LoadFrom fetches source and replaces the features. The fetch runs without
// holding the state lock.
func (c *Coordinator) LoadFrom(ctx context.Context, source string) (Frame, error) {
	coll, err := c.loader.Load(ctx, source)
	if err != nil {
		zap.L().Warn("mapview: dataset load failed",
			zap.String("source", source),
			zap.Error(err),
		)
		return c.Frame(), err
	}
	coll = dataset.Simplify(coll, c.opts.Simplify)
	return c.Dispatch(Action{Kind: LoadDataset, Dataset: coll})
}

// State returns the current state. Callers must not mutate the features.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Frame returns the most recent render.
func (c *Coordinator) Frame() Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame
}

// Snapshot returns the state and its matching frame together.
func (c *Coordinator) Snapshot() (State, Frame) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.frame
}

// Popup returns the rendered popup for the feature with the given id.
func (c *Coordinator) Popup(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.frame.Features {
		if v.ID == id {
			return v.Popup, true
		}
	}
	return "", false
}
