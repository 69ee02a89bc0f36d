// Package fault defines the error taxonomy shared by the schema engine.
// Every error leaving a pipeline stage is classified as one of four kinds so
// callers can distinguish bad input from infrastructure failure.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error.
type Kind string

const (
	// KindConfig covers rejected input: invalid connection URLs, missing
	// schema names, system-schema refusal, unsupported dialects.
	KindConfig Kind = "config"
	// KindConnect covers network, authentication and TLS failures.
	KindConnect Kind = "connect"
	// KindCatalog covers unexpected catalog row shapes.
	KindCatalog Kind = "catalog"
	// KindGeneration covers unsatisfiable diff/direction combinations.
	KindGeneration Kind = "generation"
)

// Error is a classified engine error with an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config returns a new config-kind error.
func Config(format string, args ...any) error {
	return &Error{Kind: KindConfig, Msg: fmt.Sprintf(format, args...)}
}

// Connect wraps err as a connect-kind error.
func Connect(err error, format string, args ...any) error {
	return &Error{Kind: KindConnect, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Catalog wraps err as a catalog-kind error. A nil err is allowed for
// malformed rows detected without a driver error.
func Catalog(err error, format string, args ...any) error {
	return &Error{Kind: KindCatalog, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Generation returns a new generation-kind error.
func Generation(format string, args ...any) error {
	return &Error{Kind: KindGeneration, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or an empty Kind when err is not an engine
// error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsConfig reports whether err is a config-kind engine error.
func IsConfig(err error) bool { return KindOf(err) == KindConfig }

// IsConnect reports whether err is a connect-kind engine error.
func IsConnect(err error) bool { return KindOf(err) == KindConnect }

// IsCatalog reports whether err is a catalog-kind engine error.
func IsCatalog(err error) bool { return KindOf(err) == KindCatalog }

// IsGeneration reports whether err is a generation-kind engine error.
func IsGeneration(err error) bool { return KindOf(err) == KindGeneration }
