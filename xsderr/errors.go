// Package xsderr defines the structured error taxonomy shared by the
// fingerprint pipeline and the annotation editor.
package xsderr

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindParse             Kind = "Parse"
	KindLocator           Kind = "Locator"
	KindAmbiguousMetadata Kind = "AmbiguousMetadata"
	KindInvalidKey        Kind = "InvalidKey"
	KindInternal          Kind = "Internal"
)

// Stable rule identifiers.
const (
	RuleMalformed       = "XSD-PARSE-001"
	RuleInvalidUTF8     = "XSD-PARSE-002"
	RuleUndeclaredNS    = "XSD-PARSE-003"
	RuleNoRoot          = "XSD-PARSE-004"
	RuleInvalidPath     = "XSD-LOC-001"
	RuleNoMatch         = "XSD-LOC-002"
	RuleAmbiguousKey    = "XSD-META-001"
	RuleInvalidKey      = "XSD-META-002"
	RuleInternalFailure = "XSD-INTERNAL-001"
)

// Error is the library's structured error type.
//
// Message is intended for humans; do not match on it. Input carries a short
// excerpt of the offending input when one is available and Locator the path
// expression that failed.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Input   string
	Locator string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Locator != "" {
		msg = fmt.Sprintf("%s (locator %q)", msg, e.Locator)
	}
	if e.Input != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Input)
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns a structured error without a cause.
func New(kind Kind, ruleID, msg string) *Error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// Wrap returns a structured error carrying cause.
func Wrap(kind Kind, ruleID, msg string, cause error) *Error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// Parse builds a ParseError.
func Parse(ruleID, msg string, cause error) *Error {
	return Wrap(KindParse, ruleID, msg, cause)
}

// Locator builds a LocatorError for the given path expression.
func Locator(ruleID, locator, msg string, cause error) *Error {
	e := Wrap(KindLocator, ruleID, msg, cause)
	e.Locator = locator
	return e
}

// AmbiguousMetadata builds an AmbiguousMetadataError for key.
func AmbiguousMetadata(locator, key string, containers int) *Error {
	e := New(KindAmbiguousMetadata, RuleAmbiguousKey,
		fmt.Sprintf("metadata key %q found under %d appinfo elements", key, containers))
	e.Locator = locator
	return e
}

// WithInput attaches a bounded excerpt of the offending input.
func (e *Error) WithInput(input string) *Error {
	if e == nil {
		return nil
	}
	e.Input = excerpt(input)
	return e
}

const maxExcerpt = 64

func excerpt(s string) string {
	if len(s) <= maxExcerpt {
		return s
	}
	cut := maxExcerpt
	// Do not split a UTF-8 sequence.
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

func IsParse(err error) bool             { return IsKind(err, KindParse) }
func IsLocator(err error) bool           { return IsKind(err, KindLocator) }
func IsAmbiguousMetadata(err error) bool { return IsKind(err, KindAmbiguousMetadata) }
