// Package failure defines the error kinds shared by every pipeline component.
//
// Each kind has a sentinel so callers can branch with errors.Is, and the
// concrete *Error carries the operation, the missing state field (for
// precondition failures) and the cleaned text (for parsing failures).
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline error.
type Kind string

const (
	KindPrecondition   Kind = "precondition"
	KindCompletion     Kind = "completion"
	KindParsing        Kind = "parsing"
	KindRuleParsing    Kind = "rule_parsing"
	KindTransformation Kind = "transformation"
	KindRetrieval      Kind = "retrieval"
	KindRender         Kind = "render"
	KindConfiguration  Kind = "configuration"
)

// Sentinels for errors.Is matching.
var (
	ErrPrecondition   = errors.New("precondition failed")
	ErrCompletion     = errors.New("completion failed")
	ErrParsing        = errors.New("parsing failed")
	ErrRuleParsing    = errors.New("rule parsing failed")
	ErrTransformation = errors.New("transformation failed")
	ErrRetrieval      = errors.New("retrieval failed")
	ErrRender         = errors.New("render failed")
	ErrConfiguration  = errors.New("configuration error")
)

var sentinels = map[Kind]error{
	KindPrecondition:   ErrPrecondition,
	KindCompletion:     ErrCompletion,
	KindParsing:        ErrParsing,
	KindRuleParsing:    ErrRuleParsing,
	KindTransformation: ErrTransformation,
	KindRetrieval:      ErrRetrieval,
	KindRender:         ErrRender,
	KindConfiguration:  ErrConfiguration,
}

// Error is the concrete error type for every kind.
type Error struct {
	Kind Kind
	Op   string // component or stage that failed, e.g. "modify-lesson"
	// Field names the missing state field for precondition failures.
	Field string
	// Text holds the best-effort cleaned text for parsing failures.
	Text string
	// Skippable marks per-item failures (a single media fetch) that the
	// caller may absorb without aborting the batch.
	Skippable bool
	Err       error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Field != "" {
		msg += fmt.Sprintf(": missing %q", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinel. Rule parsing failures also match ErrParsing.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	return e.Kind == KindRuleParsing && target == ErrParsing
}

// Fatal reports whether the error must abort the pipeline.
func (e *Error) Fatal() bool {
	return !e.Skippable
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsFatal reports whether err should abort a pipeline invocation.
// Errors outside the taxonomy are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Fatal()
	}
	return true
}

// Precondition reports a required state field missing at stage op.
func Precondition(op, field string) error {
	return &Error{Kind: KindPrecondition, Op: op, Field: field}
}

// Completion wraps a failed or timed-out completion call.
func Completion(op string, err error) error {
	return &Error{Kind: KindCompletion, Op: op, Err: err}
}

// Parsing reports that every repair strategy was exhausted. text is the
// cleaned text kept for diagnostics.
func Parsing(op, text string, err error) error {
	return &Error{Kind: KindParsing, Op: op, Text: text, Err: err}
}

// RuleParsing is a parsing failure on the rule cleaner's reply.
func RuleParsing(op, text string, err error) error {
	return &Error{Kind: KindRuleParsing, Op: op, Text: text, Err: err}
}

// Transformation wraps a failed lesson rewrite.
func Transformation(op string, err error) error {
	return &Error{Kind: KindTransformation, Op: op, Err: err}
}

// Retrieval reports an unreachable lesson source. Lesson retrieval failures
// are fatal; use SkippableRetrieval for single media items.
func Retrieval(op string, err error) error {
	return &Error{Kind: KindRetrieval, Op: op, Err: err}
}

// SkippableRetrieval reports a per-item media failure.
func SkippableRetrieval(op string, err error) error {
	return &Error{Kind: KindRetrieval, Op: op, Err: err, Skippable: true}
}

// Render reports missing structured data for a renderer.
func Render(op string, err error) error {
	return &Error{Kind: KindRender, Op: op, Err: err}
}

// Configuration reports missing or corrupt static configuration.
func Configuration(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}
