package model

import (
	"errors"
	"fmt"

	"xdao.co/xsdhash/registry"
	"xdao.co/xsdhash/storage"
	"xdao.co/xsdhash/xsderr"
)

type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrParse              ErrorCode = "PARSE_ERROR"
	ErrLocator            ErrorCode = "LOCATOR_ERROR"
	ErrAmbiguousMetadata  ErrorCode = "AMBIGUOUS_METADATA"
	ErrInvalidKey         ErrorCode = "INVALID_KEY"
	ErrInvalidFingerprint ErrorCode = "INVALID_FINGERPRINT"
	ErrInvalidCID         ErrorCode = "INVALID_CID"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrCIDMismatch        ErrorCode = "CID_MISMATCH"
	ErrInternal           ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a human message.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	RuleID  string    `json:"ruleId,omitempty"`
	Message string    `json:"message"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.RuleID != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.RuleID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// FromError classifies err into a CodedError.
func FromError(err error) *CodedError {
	if err == nil {
		return nil
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}
	return &CodedError{Code: Code(err), RuleID: xsderr.RuleID(err), Message: err.Error()}
}

// Code returns the boundary code for err.
func Code(err error) ErrorCode {
	var coded *CodedError
	switch {
	case errors.As(err, &coded):
		return coded.Code
	case xsderr.IsParse(err):
		return ErrParse
	case xsderr.IsLocator(err):
		return ErrLocator
	case xsderr.IsAmbiguousMetadata(err):
		return ErrAmbiguousMetadata
	case xsderr.IsKind(err, xsderr.KindInvalidKey):
		return ErrInvalidKey
	case errors.Is(err, registry.ErrInvalidFingerprint):
		return ErrInvalidFingerprint
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrInvalidCID):
		return ErrInvalidCID
	case errors.Is(err, storage.ErrCIDMismatch), errors.Is(err, storage.ErrImmutable):
		return ErrCIDMismatch
	default:
		return ErrInternal
	}
}
