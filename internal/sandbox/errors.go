package sandbox

import (
	"fmt"
	"time"
)

// Failure taxonomy of the safety gate. Every execution-time fault is caught
// at the gate boundary; none of these may terminate the hosting process.

// SanitizationError means the generated source could not be parsed, or a
// disallowed import was found while the gate runs under the reject policy.
type SanitizationError struct {
	Line int
	Msg  string
}

func (e *SanitizationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("sanitization failed at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("sanitization failed: %s", e.Msg)
}

// ExecutionTimeoutError means the code ran past the wall-clock limit and was
// aborted. Partial output is discarded.
type ExecutionTimeoutError struct {
	Limit time.Duration
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("execution exceeded the %s time limit", e.Limit)
}

// EmptyResultError means execution finished without assigning the output
// binding.
type EmptyResultError struct {
	Binding string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("execution produced no %q binding", e.Binding)
}

// RuntimeFaultError carries a truncated message from a fault raised by the
// generated code itself.
type RuntimeFaultError struct {
	Msg string
}

func (e *RuntimeFaultError) Error() string {
	return "runtime fault: " + e.Msg
}

const maxFaultMessage = 200

func newRuntimeFault(msg string) *RuntimeFaultError {
	if len(msg) > maxFaultMessage {
		msg = msg[:maxFaultMessage] + "..."
	}
	return &RuntimeFaultError{Msg: msg}
}
