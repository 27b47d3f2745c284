package view

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/fraudlens/ringview/internal/graph"
	"github.com/fraudlens/ringview/internal/layout"
	"github.com/fraudlens/ringview/internal/model"
)

// DefaultFrameInterval is roughly 30 frames per second.
const DefaultFrameInterval = 33 * time.Millisecond

// Renderer draws one frame. Implementations live in internal/render.
type Renderer interface {
	DrawFrame(snap model.Snapshot) error
}

// Loop ticks the investigation view: snapshot the model, scatter any
// freshly arrived nodes, advance the layout one step, write positions back,
// draw, and refresh the hit-test index. The loop owns its goroutine; Stop
// blocks until it has exited, so after Stop returns the model is never read
// again and the owning view may discard it.
type Loop struct {
	model       *graph.Model
	sim         *layout.Simulator
	renderer    Renderer
	interaction *Interaction
	interval    time.Duration
	logger      *slog.Logger
	rng         *rand.Rand

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewLoop wires a render loop over the given model. A zero interval takes
// DefaultFrameInterval; a nil logger takes slog.Default().
func NewLoop(m *graph.Model, sim *layout.Simulator, r Renderer, ix *Interaction, interval time.Duration, logger *slog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		model:       m,
		sim:         sim,
		renderer:    r,
		interaction: ix,
		interval:    interval,
		logger:      logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins ticking. Calling Start on a running loop is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stop, l.done)
}

// Stop halts the loop and waits for the in-flight frame to finish. It is
// idempotent; once it returns, no further model reads occur.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stop == nil {
		l.mu.Unlock()
		return
	}
	close(l.stop)
	l.stop = nil
	done := l.done
	l.mu.Unlock()
	<-done
}

func (l *Loop) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Tick runs a single frame. The render command uses it directly to settle
// a layout without a live ticker.
func (l *Loop) Tick() {
	snap := l.model.Snapshot()
	l.sim.Scatter(snap.Nodes, l.rng)
	l.sim.Step(snap.Nodes, snap.Edges)
	for _, n := range snap.Nodes {
		l.model.SetPosition(n.ID, n.X, n.Y, n.VX, n.VY)
	}
	if l.renderer != nil {
		if err := l.renderer.DrawFrame(snap); err != nil {
			l.logger.Warn("frame draw failed", "error", err)
		}
	}
	if l.interaction != nil {
		l.interaction.UpdateFrame(snap.Nodes)
	}
}
