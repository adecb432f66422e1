// Package obserr carries key/value context on errors as they travel from
// the record source up through the aggregators, so the final log line can
// say which archive, line, or chunk went wrong without string
// concatenation at every layer.
package obserr

import (
	"errors"
	"fmt"
)

// Error wraps an underlying error with annotations and key/value data.
// An error here is owned by a single pass over the record source, so
// unlike a general-purpose telemetry error there is no locking.
type Error struct {
	orig error
	err  error
	vals map[string]interface{}
}

func New(e interface{}) *Error {
	var err error

	switch o := e.(type) {
	case *Error:
		return &Error{orig: o.orig, err: o.err, vals: o.Vals()}
	case error:
		err = o
	case string:
		err = errors.New(o)
	default:
		err = fmt.Errorf("%v", o)
	}

	return &Error{
		orig: err,
		err:  err,
		vals: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	return e.err.Error()
}

// Unwrap exposes the original error so errors.Is sees through any number
// of annotation layers.
func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Get(k string) interface{} {
	return e.vals[k]
}

// Set attaches alternating key/value pairs and returns e for chaining.
func (e *Error) Set(kvs ...interface{}) *Error {
	for i := 0; i < len(kvs); i += 2 {
		e.vals[kvs[i].(string)] = kvs[i+1]
	}
	return e
}

func (e *Error) Vals() map[string]interface{} {
	vals := make(map[string]interface{}, len(e.vals))
	for k, v := range e.vals {
		vals[k] = v
	}
	return vals
}

func (e *Error) Annotate(ann interface{}) *Error {
	var a string

	switch o := ann.(type) {
	case string:
		a = o
	case error:
		a = o.Error()
	default:
		a = fmt.Sprintf("%v", o)
	}

	e.err = fmt.Errorf("%s: %s", a, e.err)
	return e
}

func Annotate(e error, an interface{}) *Error {
	return New(e).Annotate(an)
}

// Original returns the error a chain of annotations started from, or e
// itself when it was never wrapped.
func Original(e error) error {
	if oe, ok := e.(*Error); ok {
		return oe.orig
	}
	return e
}
