// Package health carries structured errors with slog-style key/value attributes and
// makes "log it and return it" a one-liner. Errors created here serialize their attrs
// and wrapped cause into Error(), so nothing is lost when they cross a boundary that
// only keeps the string.
package health

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type Err struct {
	Message string
	wrapped error
	attrs   []any
}

// Error serializes the message, attrs, and the wrapped cause.
func (e *Err) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.attrs) > 0 {
		b.WriteString("[")
		writeAttrs(&b, e.attrs)
		b.WriteString("]")
	}

	if e.wrapped != nil {
		b.WriteString(" via ")
		b.WriteString(e.wrapped.Error())
	}

	return b.String()
}

func (e *Err) Unwrap() error {
	return e.wrapped
}

// NewErr returns a new, unlogged error. args follow slog's key/value convention.
func NewErr(msg string, args ...any) error {
	return &Err{Message: msg, attrs: args}
}

// Wrap returns a new error wrapping `wrapped`.
func Wrap(msg string, wrapped error, args ...any) error {
	if wrapped == nil {
		wrapped = errors.New("nil wrapped error. WARNING: you should not call Wrap with a nil error")
	}
	return &Err{Message: msg, wrapped: wrapped, attrs: args}
}

// LogNewErr creates an error with msg and args, logs it, and returns it.
func LogNewErr(logger *slog.Logger, msg string, args ...any) error {
	return LogErr(logger, NewErr(msg, args...))
}

// LogWrappedErr creates an error wrapping `wrapped`, logs it, and returns it.
func LogWrappedErr(logger *slog.Logger, msg string, wrapped error, args ...any) error {
	return LogErr(logger, Wrap(msg, wrapped, args...))
}

// LogErr logs err to logger (if non-nil) and returns the error, enabling:
//
//	return health.LogErr(logger, health.NewErr("myerr", "errkv", v))
//
// Errors created via NewErr/Wrap log their own attrs first, then a "via" kv for the
// wrapped cause, then args.
func LogErr(logger *slog.Logger, err error, args ...any) error {
	if logger == nil || err == nil {
		return err
	}

	h, isHealthErr := err.(*Err)
	if !isHealthErr {
		logger.Error(err.Error(), args...)
		return err
	}

	allArgs := make([]any, 0, len(h.attrs)+len(args)+1)
	allArgs = append(allArgs, h.attrs...)
	if h.wrapped != nil {
		allArgs = append(allArgs, slog.String("via", h.wrapped.Error()))
	}
	allArgs = append(allArgs, args...)

	logger.Error(h.Message, allArgs...)
	return err
}

// writeAttrs writes attrs (slog key/value protocol) to b in key=value format.
func writeAttrs(b *strings.Builder, attrs []any) {
	for i := 0; i < len(attrs); {
		if a, ok := attrs[i].(slog.Attr); ok {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(b, "%s=%v", a.Key, a.Value)
			i++
			continue
		}
		if i+1 >= len(attrs) {
			// Dangling key with no value; emit it bare rather than dropping it.
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(b, "%v", attrs[i])
			break
		}
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(b, "%v=%v", attrs[i], attrs[i+1])
		i += 2
	}
}
