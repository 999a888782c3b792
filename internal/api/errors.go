// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes client errors for handling.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindUnavailable
	KindNotFound
	KindServer
	KindTimeout
	KindMalformed
	KindOffline
	KindCanceled
)

// String returns the lowercase name used in logs and metric labels.
func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindTimeout:
		return "timeout"
	case KindMalformed:
		return "malformed"
	case KindOffline:
		return "offline"
	case KindCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// Sentinel errors for input validation. They never reach the network.
var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrEmptyDocument = errors.New("document content is empty")
)

// Error is returned by every Client operation that talks to the backend.
// UserMessage is safe to show as-is; Err carries the technical cause.
type Error struct {
	Op          string
	Kind        ErrorKind
	Status      int
	UserMessage string
	Err         error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.UserMessage
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindLabel returns the metric label for the error kind.
func (e *Error) KindLabel() string { return e.Kind.String() }

// KindOf returns the kind of err, or KindOther when err is not an *Error.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindOther
}

// IsUnavailable reports whether err means the backend could not be reached.
func IsUnavailable(err error) bool {
	return KindOf(err) == KindUnavailable
}

// statusError classifies a non-2xx response.
func statusError(op string, status int, body string) *Error {
	e := &Error{Op: op, Status: status}
	if body != "" {
		e.Err = errors.New(body)
	}
	switch {
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		e.UserMessage = "endpoint not found"
	case status >= http.StatusInternalServerError:
		e.Kind = KindServer
		e.UserMessage = "internal server error"
	default:
		e.Kind = KindOther
		e.UserMessage = "request failed"
	}
	return e
}
