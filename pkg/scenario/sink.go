package scenario

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StepEvent struct {
	RunID    uuid.UUID
	Scenario string
	Index    int
	Label    string
	Elapsed  time.Duration
}

type ScenarioEvent struct {
	RunID    uuid.UUID
	Scenario string
	State    State
	// Steps is the number of steps that completed
	Steps   int
	Elapsed time.Duration
	Err     error
}

// Sink receives timings from a Runner. Calls come from the goroutine that
// called Runner.Run.
type Sink interface {
	StepCompleted(ev StepEvent)
	StepAborted(ev StepEvent, err error)
	ScenarioFinished(ev ScenarioEvent)
}

// LogSink writes one line per step and one per scenario.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) StepCompleted(ev StepEvent) {
	s.logger.Info(ev.Label+" took "+ev.Elapsed.String()+" to execute",
		zap.String("scenario", ev.Scenario),
		zap.Int("step", ev.Index+1),
		zap.Duration("elapsed", ev.Elapsed),
		zap.Stringer("run_id", ev.RunID))
}

func (s *LogSink) StepAborted(ev StepEvent, err error) {
	s.logger.Error("pipeline aborted",
		zap.String("scenario", ev.Scenario),
		zap.Int("step", ev.Index+1),
		zap.String("label", ev.Label),
		zap.Duration("elapsed", ev.Elapsed),
		zap.Stringer("run_id", ev.RunID),
		zap.Error(err))
}

func (s *LogSink) ScenarioFinished(ev ScenarioEvent) {
	fields := []zap.Field{
		zap.Stringer("state", ev.State),
		zap.Int("steps", ev.Steps),
		zap.Duration("elapsed", ev.Elapsed),
		zap.Stringer("run_id", ev.RunID),
	}
	if ev.State == Aborted {
		s.logger.Warn(ev.Scenario+" stopped after "+ev.Elapsed.String(), fields...)
		return
	}
	s.logger.Info(ev.Scenario+" took "+ev.Elapsed.String()+" to execute", fields...)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu        sync.Mutex
	completed []StepEvent
	aborted   []StepEvent
	scenarios []ScenarioEvent
}

func (r *Recorder) StepCompleted(ev StepEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, ev)
}

func (r *Recorder) StepAborted(ev StepEvent, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborted = append(r.aborted, ev)
}

func (r *Recorder) ScenarioFinished(ev ScenarioEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios = append(r.scenarios, ev)
}

func (r *Recorder) Completed() []StepEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StepEvent(nil), r.completed...)
}

func (r *Recorder) Aborted() []StepEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StepEvent(nil), r.aborted...)
}

func (r *Recorder) Scenarios() []ScenarioEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ScenarioEvent(nil), r.scenarios...)
}

type multiSink []Sink

// Tee forwards every event to each sink in order.
func Tee(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) StepCompleted(ev StepEvent) {
	for _, s := range m {
		s.StepCompleted(ev)
	}
}

func (m multiSink) StepAborted(ev StepEvent, err error) {
	for _, s := range m {
		s.StepAborted(ev, err)
	}
}

func (m multiSink) ScenarioFinished(ev ScenarioEvent) {
	for _, s := range m {
		s.ScenarioFinished(ev)
	}
}
