package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/frame"
)

// ResultBinding is the name the generated code must assign its output to.
const ResultBinding = "result"

// watchdogGrace gives the interpreter a moment to notice its own deadline
// before the outer timer declares the run lost.
const watchdogGrace = 500 * time.Millisecond

// CodeUnit is one model-generated snippet plus the context it runs against.
type CodeUnit struct {
	ID           string
	Source       string
	Capabilities CapabilitySet
	Bindings     map[string]any
}

// Artifact is the typed outcome of a successful run. Value holds the raw
// runtime value so callers can hand frames and figures on without decoding.
type Artifact struct {
	Kind   string `json:"kind"` // table | figure | scalar | text
	Value  any    `json:"value"`
	Stdout string `json:"stdout,omitempty"`
}

// Gate sanitizes and executes model-generated analysis code. A single Gate
// is safe for concurrent use and survives any number of failed runs.
type Gate struct {
	limit  time.Duration
	policy ImportPolicy
	logger zerolog.Logger
}

func NewGate(limit time.Duration, policy ImportPolicy, logger zerolog.Logger) *Gate {
	if limit <= 0 {
		limit = 5 * time.Second
	}
	return &Gate{limit: limit, policy: policy, logger: logger}
}

// SanitizeAndRun parses the unit, strips or rejects imports outside its
// capability set, then interprets the result under the wall-clock limit.
// Every failure comes back as one of the gate's error types; the process
// is never taken down by the generated code.
func (g *Gate) SanitizeAndRun(ctx context.Context, unit CodeUnit) (*Artifact, error) {
	start := time.Now()
	prog, err := parse(unit.Source)
	if err != nil {
		var se *SanitizationError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, &SanitizationError{Msg: err.Error()}
	}
	caps := unit.Capabilities
	if caps == nil {
		caps = DefaultCapabilities()
	}
	prog, err = sanitize(prog, caps, g.policy)
	if err != nil {
		return nil, err
	}

	deadline := start.Add(g.limit)
	in := newInterp(caps, unit.Bindings, deadline)

	type outcome struct {
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: newRuntimeFault(fmt.Sprint(r))}
			}
		}()
		done <- outcome{err: in.run(prog)}
	}()

	timer := time.NewTimer(g.limit + watchdogGrace)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, errDeadline) {
				g.logger.Warn().Str("unit", unit.ID).Dur("limit", g.limit).Msg("sandboxed code hit the time limit")
				return nil, &ExecutionTimeoutError{Limit: g.limit}
			}
			g.logger.Debug().Str("unit", unit.ID).Err(out.err).Msg("sandboxed code faulted")
			return nil, newRuntimeFault(out.err.Error())
		}
	case <-timer.C:
		// The goroutine is left to notice its deadline and exit on its own.
		g.logger.Warn().Str("unit", unit.ID).Dur("limit", g.limit).Msg("sandboxed code ignored its deadline, abandoning run")
		return nil, &ExecutionTimeoutError{Limit: g.limit}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	value, ok := in.env[ResultBinding]
	if !ok {
		return nil, &EmptyResultError{Binding: ResultBinding}
	}
	artifact := &Artifact{Kind: artifactKind(value), Value: value, Stdout: in.stdout.String()}
	g.logger.Debug().
		Str("unit", unit.ID).
		Str("kind", artifact.Kind).
		Dur("took", time.Since(start)).
		Msg("sandboxed code finished")
	return artifact, nil
}

func artifactKind(v any) string {
	switch v.(type) {
	case *frame.Frame:
		return "table"
	case *Figure:
		return "figure"
	case string:
		return "text"
	default:
		return "scalar"
	}
}
