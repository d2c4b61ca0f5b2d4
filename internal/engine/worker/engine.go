package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"subgen/internal/engine"
	"subgen/internal/plan"
)

// Engine launches one worker process per loaded model.
type Engine struct {
	cfg   Config
	start startFunc
}

// NewEngine constructs an engine for the configured worker command.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, start: startExec}
}

// Load starts a worker in serve mode and waits for it to report ready.
func (e *Engine) Load(ctx context.Context, modelPath string, p plan.Plan) (engine.Model, error) {
	args := append(append([]string(nil), e.cfg.Args...),
		serveSubcommand,
		"--model", modelPath,
		"--device", p.Backend.String(),
		"--compute-type", p.Precision.String(),
	)
	proc, err := e.start(e.cfg.Command, args, e.cfg.Env)
	if err != nil {
		return nil, err
	}

	m := &Model{
		plan:        p,
		proc:        proc,
		lines:       make(chan lineResult, 16),
		grace:       e.cfg.ShutdownGrace,
		decodeStart: e.cfg.DecodeStartTimeout,
	}
	go readMessages(proc.Stdout(), m.lines)

	msg, err := m.await(ctx, e.cfg.LoadTimeout, "model load")
	if err == nil && msg.Event != eventReady {
		err = m.unexpected(msg, eventReady)
	}
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("load %s on %s: %w", modelPath, p, err)
	}
	return m, nil
}

// Model is a resident worker process holding one loaded model.
type Model struct {
	plan        plan.Plan
	proc        process
	lines       chan lineResult
	grace       time.Duration
	decodeStart time.Duration

	mu        sync.Mutex
	streaming bool
	closeOnce sync.Once
	closeErr  error
}

// Plan returns the plan the model was loaded under.
func (m *Model) Plan() plan.Plan {
	return m.plan
}

type transcribeRequest struct {
	Op string `json:"op"`
	engine.DecodeRequest
}

// Decode sends a transcription request and waits for the stream metadata.
func (m *Model) Decode(ctx context.Context, req engine.DecodeRequest) (*engine.Session, error) {
	m.mu.Lock()
	if m.streaming {
		m.mu.Unlock()
		return nil, errors.New("decode already in progress")
	}
	m.streaming = true
	m.mu.Unlock()

	session, err := m.startDecode(ctx, req)
	if err != nil {
		m.mu.Lock()
		m.streaming = false
		m.mu.Unlock()
		return nil, err
	}
	return session, nil
}

func (m *Model) startDecode(ctx context.Context, req engine.DecodeRequest) (*engine.Session, error) {
	payload, err := json.Marshal(transcribeRequest{Op: opTranscribe, DecodeRequest: req})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := m.proc.Stdin().Write(append(payload, '\n')); err != nil {
		return nil, m.withStderr(fmt.Errorf("send request: %w", err))
	}

	msg, err := m.await(ctx, m.decodeStart, "decode start")
	if err != nil {
		return nil, err
	}
	if msg.Event != eventInfo {
		return nil, m.unexpected(msg, eventInfo)
	}
	return &engine.Session{
		Meta: engine.Meta{
			Language:            msg.Language,
			LanguageProbability: msg.LanguageProbability,
			DurationSeconds:     msg.Duration,
		},
		Cues: &cueStream{model: m},
	}, nil
}

// Close asks the worker to exit and kills it after the grace period.
func (m *Model) Close() error {
	m.closeOnce.Do(func() {
		_ = m.proc.Stdin().Close()
		go func() {
			for range m.lines {
			}
		}()
		grace := m.grace
		if grace <= 0 {
			grace = defaultShutdownGrace
		}
		done := make(chan error, 1)
		go func() { done <- m.proc.Wait() }()
		select {
		case <-done:
		case <-time.After(grace):
			m.closeErr = m.proc.Kill()
			<-done
		}
	})
	return m.closeErr
}

// await returns the next protocol message, bounded by ctx and timeout (zero
// means unbounded).
func (m *Model) await(ctx context.Context, timeout time.Duration, what string) (message, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case res, ok := <-m.lines:
		if !ok {
			return message{}, m.withStderr(errors.New("worker output closed"))
		}
		if res.err != nil {
			if errors.Is(res.err, io.EOF) {
				return message{}, m.withStderr(fmt.Errorf("worker exited during %s", what))
			}
			return message{}, m.withStderr(res.err)
		}
		return res.msg, nil
	case <-timer:
		return message{}, m.withStderr(fmt.Errorf("%s timed out after %s", what, timeout))
	case <-ctx.Done():
		return message{}, ctx.Err()
	}
}

func (m *Model) unexpected(msg message, want string) error {
	if msg.Event == eventError {
		text := strings.TrimSpace(msg.Message)
		if text == "" {
			text = "worker reported an error"
		}
		return m.withStderr(errors.New(text))
	}
	return fmt.Errorf("unexpected worker event %q (want %q)", msg.Event, want)
}

func (m *Model) withStderr(err error) error {
	werr := &engine.WorkerError{Message: err.Error(), Err: err}
	if tail := strings.TrimSpace(m.proc.StderrTail()); tail != "" {
		werr.StderrTail = lastLines(tail, 5)
	}
	return werr
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// cueStream pulls segment events from a model's worker.
type cueStream struct {
	model *Model
	index int
	done  bool
}

// Next blocks until the worker produces the next segment.
func (s *cueStream) Next(ctx context.Context) (engine.Cue, error) {
	if s.done {
		return engine.Cue{}, io.EOF
	}
	msg, err := s.model.await(ctx, 0, "transcription")
	if err != nil {
		s.finish()
		return engine.Cue{}, err
	}
	switch msg.Event {
	case eventSegment:
		s.index++
		cue := engine.Cue{
			Index: s.index,
			Start: msg.Start,
			End:   msg.End,
			Text:  msg.Text,
		}
		if len(msg.Words) > 0 {
			cue.Words = make([]engine.Word, len(msg.Words))
			for i, w := range msg.Words {
				cue.Words[i] = engine.Word{Start: w.Start, End: w.End, Text: w.Word}
			}
		}
		return cue, nil
	case eventDone:
		s.finish()
		return engine.Cue{}, io.EOF
	default:
		s.finish()
		return engine.Cue{}, s.model.unexpected(msg, eventSegment)
	}
}

func (s *cueStream) finish() {
	s.done = true
	s.model.mu.Lock()
	s.model.streaming = false
	s.model.mu.Unlock()
}
