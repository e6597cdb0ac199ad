// Copyright 2025 RGB Core Project

package validator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rgbcore/rgbcore/pkg/operation"
	"github.com/rgbcore/rgbcore/pkg/rgberr"
)

// Severity classifies one Status entry: a Failure rejects
// the operation it names, a Warning flags something worth a human's
// attention without blocking acceptance, and Info records a benign
// observation made along the way.
type Severity uint8

const (
	Failure Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Failure:
		return "Failure"
	case Warning:
		return "Warning"
	case Info:
		return "Info"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Status is one diagnostic emitted by a validation run, naming the
// operation it concerns and, for failures, the rgberr.Code that
// explains why.
type Status struct {
	Severity Severity
	OpId     operation.OpId
	Code     rgberr.Code
	Message  string
}

func (s Status) String() string {
	return fmt.Sprintf("%s[%x] %s: %s", s.Severity, s.OpId, s.Code, s.Message)
}

// Report accumulates the Status entries of one validation run and
// answers whether the DAG as a whole was accepted: acceptance requires
// zero Failure entries. Warnings and Info entries never affect Valid.
type Report struct {
	// RunID correlates every Status of one Validate call in logs and
	// metrics; it has no consensus meaning.
	RunID    uuid.UUID
	Statuses []Status
}

func (r *Report) fail(opId operation.OpId, err error) {
	code := rgberr.Code(0)
	if e, ok := err.(*rgberr.Error); ok {
		code = e.Code
	}
	r.Statuses = append(r.Statuses, Status{Severity: Failure, OpId: opId, Code: code, Message: err.Error()})
}

func (r *Report) warn(opId operation.OpId, code rgberr.Code, format string, args ...any) {
	r.Statuses = append(r.Statuses, Status{Severity: Warning, OpId: opId, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) info(opId operation.OpId, format string, args ...any) {
	r.Statuses = append(r.Statuses, Status{Severity: Info, OpId: opId, Message: fmt.Sprintf(format, args...)})
}

// Valid reports whether the run accumulated zero Failure statuses.
func (r *Report) Valid() bool {
	for _, s := range r.Statuses {
		if s.Severity == Failure {
			return false
		}
	}
	return true
}

// Failures returns only the Failure-severity statuses, in emission order.
func (r *Report) Failures() []Status {
	var out []Status
	for _, s := range r.Statuses {
		if s.Severity == Failure {
			out = append(out, s)
		}
	}
	return out
}
