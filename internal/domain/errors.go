package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a download request failed
type FailureKind string

const (
	KindInvalidInput    FailureKind = "InvalidInput"
	KindInvalidChoice   FailureKind = "InvalidChoice"
	KindExternalService FailureKind = "ExternalServiceError"
	KindFileNotProduced FailureKind = "FileNotProduced"
	KindEmptyOutput     FailureKind = "EmptyOutput"
	KindUnknown         FailureKind = "Unknown"
)

var defaultHints = map[FailureKind]string{
	KindInvalidInput:    "Check the URL and try again.",
	KindInvalidChoice:   "Pick one of the listed quality options.",
	KindExternalService: "Make sure the URL is valid and the video is accessible.",
	KindFileNotProduced: "Try a different quality option.",
	KindEmptyOutput:     "Try a different quality option.",
	KindUnknown:         "Try again later.",
}

// HintFor returns the default remediation text for a kind
func HintFor(kind FailureKind) string {
	if hint, ok := defaultHints[kind]; ok {
		return hint
	}
	return defaultHints[KindUnknown]
}

// DownloadError is a classified, request-terminal failure
type DownloadError struct {
	Kind    FailureKind
	Message string
	Hint    string
	Err     error
}

// NewDownloadError creates a classified error with the kind's default hint
func NewDownloadError(kind FailureKind, message string, err error) *DownloadError {
	return &DownloadError{
		Kind:    kind,
		Message: message,
		Hint:    HintFor(kind),
		Err:     err,
	}
}

// WithHint replaces the remediation text
func (e *DownloadError) WithHint(hint string) *DownloadError {
	if hint != "" {
		e.Hint = hint
	}
	return e
}

func (e *DownloadError) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is matches any DownloadError of the same kind
func (e *DownloadError) Is(target error) bool {
	t, ok := target.(*DownloadError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrInvalidInput    = &DownloadError{Kind: KindInvalidInput}
	ErrInvalidChoice   = &DownloadError{Kind: KindInvalidChoice}
	ErrExternalService = &DownloadError{Kind: KindExternalService}
	ErrFileNotProduced = &DownloadError{Kind: KindFileNotProduced}
	ErrEmptyOutput     = &DownloadError{Kind: KindEmptyOutput}
)

// AsDownloadError returns err as a DownloadError, classifying unknown errors as Unknown
func AsDownloadError(err error) *DownloadError {
	if err == nil {
		return nil
	}
	var de *DownloadError
	if errors.As(err, &de) {
		return de
	}
	return NewDownloadError(KindUnknown, err.Error(), err)
}

// KindOf returns the failure kind of err
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	return AsDownloadError(err).Kind
}
