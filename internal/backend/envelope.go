package backend

import (
	"encoding/json"
	"errors"
)

// Envelope is the wrapper every backend endpoint returns.
type Envelope[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      T      `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Result is either a value or an error, decoded from an Envelope.
type Result[T any] struct {
	value T
	err   error
	msg   string
}

// Ok wraps a successful value.
func Ok[T any](v T, msg string) Result[T] {
	return Result[T]{value: v, msg: msg}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("backend: unknown error")
	}
	return Result[T]{err: err}
}

// Ok reports whether r holds a value.
func (r Result[T]) Ok() bool { return r.err == nil }

// Value returns the value, or the zero value for a failure.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure, or nil.
func (r Result[T]) Err() error { return r.err }

// Message is the backend message of a successful call.
func (r Result[T]) Message() string { return r.msg }

// Unwrap returns the value and error as a pair.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// Decode turns a response body into a Result. A body that is not an
// envelope, or an envelope with success=false, is a *RequestError.
func Decode[T any](method, path string, status int, body []byte) Result[T] {
	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return Err[T](&RequestError{Method: method, Path: path, StatusCode: status, Message: "malformed response", Err: err})
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return Err[T](&RequestError{Method: method, Path: path, StatusCode: status, Message: msg, Err: errors.New(msg)})
	}
	return Ok(env.Data, env.Message)
}
