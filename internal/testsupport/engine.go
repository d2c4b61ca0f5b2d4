package testsupport

import (
	"context"
	"io"
	"sync"

	"subgen/internal/engine"
	"subgen/internal/plan"
)

// CueStream replays a fixed list of cues, optionally failing after FailAfter
// cues have been returned.
type CueStream struct {
	Cues      []engine.Cue
	Err       error
	FailAfter int
	pos       int
}

// Next implements engine.CueStream.
func (s *CueStream) Next(ctx context.Context) (engine.Cue, error) {
	if err := ctx.Err(); err != nil {
		return engine.Cue{}, err
	}
	if s.Err != nil && s.pos >= s.FailAfter {
		return engine.Cue{}, s.Err
	}
	if s.pos >= len(s.Cues) {
		return engine.Cue{}, io.EOF
	}
	cue := s.Cues[s.pos]
	s.pos++
	return cue, nil
}

// NewSession wraps cues in a session with the given metadata.
func NewSession(meta engine.Meta, cues ...engine.Cue) *engine.Session {
	return &engine.Session{Meta: meta, Cues: &CueStream{Cues: cues}}
}

// FakeEngine records every load and decode and answers through callbacks.
type FakeEngine struct {
	// LoadErr returns the error for a load attempt; nil means success.
	LoadErr func(attempt int, p plan.Plan) error
	// Decode answers a decode attempt; nil means an empty session.
	Decode func(attempt int, p plan.Plan) (*engine.Session, error)

	mu      sync.Mutex
	loads   []plan.Plan
	decodes []plan.Plan
	closed  int
	request []engine.DecodeRequest
}

// Load implements engine.Engine.
func (f *FakeEngine) Load(_ context.Context, _ string, p plan.Plan) (engine.Model, error) {
	f.mu.Lock()
	f.loads = append(f.loads, p)
	attempt := len(f.loads)
	f.mu.Unlock()
	if f.LoadErr != nil {
		if err := f.LoadErr(attempt, p); err != nil {
			return nil, err
		}
	}
	return &FakeModel{engine: f, plan: p}, nil
}

// Loads returns the plans passed to Load in order.
func (f *FakeEngine) Loads() []plan.Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]plan.Plan(nil), f.loads...)
}

// Decodes returns the plans of the models Decode was called on, in order.
func (f *FakeEngine) Decodes() []plan.Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]plan.Plan(nil), f.decodes...)
}

// Requests returns every decode request received.
func (f *FakeEngine) Requests() []engine.DecodeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.DecodeRequest(nil), f.request...)
}

// Closed returns how many models were closed.
func (f *FakeEngine) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeModel is a model handed out by FakeEngine.
type FakeModel struct {
	engine *FakeEngine
	plan   plan.Plan
}

// Plan implements engine.Model.
func (m *FakeModel) Plan() plan.Plan { return m.plan }

// Decode implements engine.Model.
func (m *FakeModel) Decode(_ context.Context, req engine.DecodeRequest) (*engine.Session, error) {
	f := m.engine
	f.mu.Lock()
	f.decodes = append(f.decodes, m.plan)
	f.request = append(f.request, req)
	attempt := len(f.decodes)
	f.mu.Unlock()
	if f.Decode == nil {
		return NewSession(engine.Meta{}), nil
	}
	return f.Decode(attempt, m.plan)
}

// Close implements engine.Model.
func (m *FakeModel) Close() error {
	m.engine.mu.Lock()
	m.engine.closed++
	m.engine.mu.Unlock()
	return nil
}
