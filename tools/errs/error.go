package errs

import (
	"errors"
	"fmt"
	"strings"

	"PSocial/tools/errs/stack"
)

type Error interface {
	Is(err error) bool
	Wrap() error
	WrapMsg(msg string, kv ...any) error
	error
}

type ErrWrapper interface {
	error
	Unwrap() error
}

// New 创建一个不带业务码的错误；kv 成对追加到消息。
func New(s string, kv ...any) Error {
	return &errorString{s: toString(s, kv)}
}

type errorString struct {
	s string
}

func (e *errorString) Error() string { return e.s }

func (e *errorString) Wrap() error { return stack.New(e, stackSkip) }

func (e *errorString) WrapMsg(msg string, kv ...any) error {
	return stack.New(NewErrorWrapper(e, toString(msg, kv)), stackSkip)
}

func (e *errorString) Is(err error) bool {
	var t *errorString
	if !errors.As(Unwrap(err), &t) {
		return false
	}
	return t != nil && t.s == e.s
}

// Wrap 在原错误上补调用栈。
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return stack.New(err, stackSkip)
}

// WrapMsg 在原错误上补调用栈和说明；kv 成对出现。
func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return stack.New(NewErrorWrapper(err, toString(msg, kv)), stackSkip)
}

// NewErrorWrapper 给错误附加说明，保留 Unwrap 链。
func NewErrorWrapper(err error, msg string) error {
	return &errorWrapper{err: err, msg: msg}
}

type errorWrapper struct {
	err error
	msg string
}

func (e *errorWrapper) Error() string {
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

func (e *errorWrapper) Unwrap() error { return e.err }

// Unwrap 取错误链最底层的错误。
func Unwrap(err error) error {
	for err != nil {
		unwrap, ok := err.(interface {
			error
			Unwrap() error
		})
		if !ok {
			break
		}
		next := unwrap.Unwrap()
		if next == nil {
			return unwrap
		}
		err = next
	}
	return err
}

func toString(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		sb.WriteString(", ")
		sb.WriteString(fmt.Sprint(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprint(kv[i+1]))
		} else {
			sb.WriteString("<missing>")
		}
	}
	return sb.String()
}
