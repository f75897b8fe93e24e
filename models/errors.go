package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers can decide whether to abort.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindMissingInput: no source file could be resolved. Fatal.
	KindMissingInput
	// KindSchemaMismatch: a stage's required column is absent. The stage is skipped.
	KindSchemaMismatch
	// KindParseFailure: one field could not be parsed. The field becomes undefined.
	KindParseFailure
	// KindClusteringPrecondition: clustering was invoked on an unprepared table. Fatal.
	KindClusteringPrecondition
	// KindInvalidMethod: unknown clustering algorithm. Fatal, raised before computing.
	KindInvalidMethod
	// KindInvalidConfig: a configuration value is out of range. Fatal.
	KindInvalidConfig
	// KindContractViolation: a checkpoint is missing guaranteed columns. Fatal.
	KindContractViolation
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingInput:
		return "MissingInput"
	case KindSchemaMismatch:
		return "SchemaMismatch"
	case KindParseFailure:
		return "ParseFailure"
	case KindClusteringPrecondition:
		return "ClusteringPrecondition"
	case KindInvalidMethod:
		return "InvalidMethod"
	case KindInvalidConfig:
		return "InvalidConfig"
	case KindContractViolation:
		return "ContractViolation"
	}
	return "Unknown"
}

// Fatal reports whether an error of this kind must abort the run.
func (k ErrorKind) Fatal() bool {
	return k != KindSchemaMismatch && k != KindParseFailure
}

// Sentinels for errors.Is. A *PipelineError matches the sentinel of its kind.
var (
	ErrMissingInput           = &PipelineError{Kind: KindMissingInput}
	ErrSchemaMismatch         = &PipelineError{Kind: KindSchemaMismatch}
	ErrClusteringPrecondition = &PipelineError{Kind: KindClusteringPrecondition}
	ErrInvalidMethod          = &PipelineError{Kind: KindInvalidMethod}
	ErrInvalidConfig          = &PipelineError{Kind: KindInvalidConfig}
	ErrContractViolation      = &PipelineError{Kind: KindContractViolation}
)

// PipelineError is the structured error carried across stages.
type PipelineError struct {
	Kind   ErrorKind
	Op     string
	Detail string
	Cause  error
}

// NewError builds a PipelineError for operation op.
func NewError(kind ErrorKind, op, detail string) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Detail: detail}
}

// WrapError attaches cause to a new PipelineError.
func WrapError(cause error, kind ErrorKind, op, detail string) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Detail: detail, Cause: cause}
}

// Error formats as "<op>: <Kind>: <detail>: <cause>", omitting empty parts.
func (e *PipelineError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *PipelineError) Unwrap() error { return e.Cause }

// Is matches any PipelineError of the same kind, so errors.Is(err, ErrInvalidMethod) works.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first PipelineError in err's chain.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// Errorf is shorthand for NewError with a formatted detail.
func Errorf(kind ErrorKind, op, format string, args ...any) *PipelineError {
	return NewError(kind, op, fmt.Sprintf(format, args...))
}
