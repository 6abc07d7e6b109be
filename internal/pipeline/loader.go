package pipeline

import (
	"context"
	"sync"
	"time"
)

// Factory builds a pipeline. It runs at most once per Loader.
type Factory func(ctx context.Context) (Pipeline, error)

// Loader memoizes a pipeline for the lifetime of the process. The first
// Load constructs it; later calls return the cached pipeline or the cached
// load error. There is no invalidation.
type Loader struct {
	factory Factory

	once     sync.Once
	pipeline Pipeline
	err      error
	loadedAt time.Time
	done     chan struct{}
}

func NewLoader(factory Factory) *Loader {
	return &Loader{factory: factory, done: make(chan struct{})}
}

func (l *Loader) Load(ctx context.Context) (Pipeline, error) {
	l.once.Do(func() {
		defer close(l.done)
		// a cancelled request must not poison the cached result
		p, err := l.factory(context.WithoutCancel(ctx))
		if err == nil && p == nil {
			err = ErrNotConfigured
		}
		l.pipeline, l.err = p, err
		l.loadedAt = time.Now()
	})
	return l.pipeline, l.err
}

// Loaded reports whether Load has finished, without triggering it.
func (l *Loader) Loaded() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Available reports whether a finished load produced a pipeline.
func (l *Loader) Available() bool {
	return l.Loaded() && l.err == nil
}

type Status struct {
	Loaded    bool      `json:"loaded"`
	Available bool      `json:"available"`
	Model     string    `json:"model,omitempty"`
	Error     string    `json:"error,omitempty"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
}

func (l *Loader) Status() Status {
	if !l.Loaded() {
		return Status{}
	}
	s := Status{Loaded: true, Available: l.err == nil, LoadedAt: l.loadedAt}
	if l.err != nil {
		s.Error = l.err.Error()
	} else {
		s.Model = l.pipeline.Name()
	}
	return s
}
