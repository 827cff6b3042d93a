// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Navyasridurga/docstring/internal/cloud"
)

// ErrorKind classifies why a session failed.
type ErrorKind int

const (
	// KindValidation means the request was rejected as invalid input.
	KindValidation ErrorKind = iota
	// KindRateLimited means the service or gateway is throttling requests.
	KindRateLimited
	// KindQuotaExhausted means the account has run out of credits.
	KindQuotaExhausted
	// KindService means the generation service reported a failure.
	KindService
	// KindTransport means the connection failed or the stream was unreadable.
	KindTransport
)

// String returns the string representation of an error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExhausted:
		return "quota_exhausted"
	case KindService:
		return "service"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Default user-facing messages per kind.
const (
	MsgCodeRequired   = "Please paste or upload Python code first"
	MsgRateLimited    = "Rate limit exceeded. Please try again in a moment."
	MsgQuotaExhausted = "Usage limit reached. Please add credits to continue."
	MsgService        = "AI service error"
	MsgConnect        = "Could not reach the docstring service"
	MsgInterrupted    = "Connection to the docstring service was interrupted"
	MsgMalformed      = "Received a malformed response from the docstring service"
)

// Error is a classified session failure.
type Error struct {
	Kind    ErrorKind
	Message string // Human-readable, shown to the user as is
	Status  int    // HTTP status when the endpoint answered, else 0
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// errorBody is the JSON error object returned by the endpoint.
type errorBody struct {
	Error string `json:"error"`
}

// statusError maps a non-success response to an Error. The endpoint's own
// message is preferred when it sent one.
func statusError(status int, body []byte) *Error {
	var eb errorBody
	message := ""
	if err := json.Unmarshal(body, &eb); err == nil {
		message = strings.TrimSpace(eb.Error)
	}

	e := &Error{Status: status, Message: message}
	switch status {
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		if e.Message == "" {
			e.Message = MsgRateLimited
		}
	case http.StatusPaymentRequired:
		e.Kind = KindQuotaExhausted
		if e.Message == "" {
			e.Message = MsgQuotaExhausted
		}
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
	default:
		e.Kind = KindService
		if e.Message == "" {
			e.Message = MsgService
		}
	}
	return e
}

// streamError maps a failure while reading the stream to an Error.
func streamError(err error) *Error {
	var gwErr *cloud.GatewayError
	switch {
	case errors.As(err, &gwErr):
		msg := gwErr.Message
		if msg == "" {
			msg = MsgService
		}
		return &Error{Kind: KindService, Message: msg, Cause: err}
	case errors.Is(err, cloud.ErrMalformedChunk), errors.Is(err, cloud.ErrChunkTooLarge):
		return &Error{Kind: KindTransport, Message: MsgMalformed, Cause: err}
	default:
		return &Error{Kind: KindTransport, Message: MsgInterrupted, Cause: err}
	}
}
