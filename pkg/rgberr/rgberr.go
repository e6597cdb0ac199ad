// Copyright 2025 RGB Core Project

// Package rgberr defines the shared error-kind taxonomy used across the
// codec, commitment, seal, schema, and VM layers so callers can switch on
// a stable Code instead of matching error strings.
package rgberr

import "fmt"

// Code identifies an error kind from the consensus-core taxonomy.
type Code int

const (
	// Codec kinds.
	UnexpectedEof Code = iota + 1
	UnknownDiscriminant
	InvalidUtf8
	OutOfOrderKeys
	DuplicateKey
	LengthExceedsBound

	// Commitment kinds.
	CommitmentMismatch
	InvalidProof
	ImpossibleMessage
	NoOpretOutput
	InvalidOpretScript
	UnrestorableProof
	ProofMismatch

	// Seal kinds.
	NotClosed
	WrongWitness
	DoubleSpend

	// Schema conformance kinds.
	UnknownType
	OccurrenceBoundViolated
	SchemaMismatch

	// VM kinds.
	ScriptFailed
	StepBudgetExhausted
	MissingLibrary
	VMDecodeError
	VMInvalidJump

	// Resolver kinds.
	WitnessMissing
	WitnessArchived

	// Validator warning kinds.
	MissingEndpoint
	ExtraneousOperation
	NonTerminalEndpoint
)

//nolint:gochecknoglobals // code -> name table, read-only
var codeNames = map[Code]string{
	UnexpectedEof:           "UnexpectedEof",
	UnknownDiscriminant:     "UnknownDiscriminant",
	InvalidUtf8:             "InvalidUtf8",
	OutOfOrderKeys:          "OutOfOrderKeys",
	DuplicateKey:            "DuplicateKey",
	LengthExceedsBound:      "LengthExceedsBound",
	CommitmentMismatch:      "CommitmentMismatch",
	InvalidProof:            "InvalidProof",
	ImpossibleMessage:       "ImpossibleMessage",
	NoOpretOutput:           "NoOpretOutput",
	InvalidOpretScript:      "InvalidOpretScript",
	UnrestorableProof:       "UnrestorableProof",
	ProofMismatch:           "ProofMismatch",
	NotClosed:               "NotClosed",
	WrongWitness:            "WrongWitness",
	DoubleSpend:             "DoubleSpend",
	UnknownType:             "UnknownType",
	OccurrenceBoundViolated: "OccurrenceBoundViolated",
	SchemaMismatch:          "SchemaMismatch",
	ScriptFailed:            "ScriptFailed",
	StepBudgetExhausted:     "StepBudgetExhausted",
	MissingLibrary:          "MissingLibrary",
	VMDecodeError:           "VMDecodeError",
	VMInvalidJump:           "VMInvalidJump",
	WitnessMissing:          "WitnessMissing",
	WitnessArchived:         "WitnessArchived",
	MissingEndpoint:         "MissingEndpoint",
	ExtraneousOperation:     "ExtraneousOperation",
	NonTerminalEndpoint:     "NonTerminalEndpoint",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is the common typed error carried by every package in this module.
// Wrap it with fmt.Errorf("...: %w", err) at call boundaries; the Code
// survives unwrapping via errors.As.
type Error struct {
	Code    Code
	Message string
	Err     error // optional underlying cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error with the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error with the given code, message, and cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}
