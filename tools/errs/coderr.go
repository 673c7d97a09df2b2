package errs

import (
	"errors"
	"strconv"
	"strings"

	"PSocial/tools/errs/stack"
)

const stackSkip = 4

var DefaultCodeRelation = newCodeRelation()

type CodeError interface {
	Code() int
	Msg() string
	Detail() string
	WithDetail(detail string) CodeError
	Error
}

func NewCodeError(code int, msg string) CodeError {
	return &codeError{
		code: code,
		msg:  msg,
	}
}

type codeError struct {
	code   int
	msg    string
	detail string
}

func (e *codeError) Code() int { return e.code }

func (e *codeError) Msg() string { return e.msg }

func (e *codeError) Detail() string { return e.detail }

func (e *codeError) WithDetail(detail string) CodeError {
	var d string
	if e.detail == "" {
		d = detail
	} else {
		d = e.detail + ", " + detail
	}
	return &codeError{
		code:   e.code,
		msg:    e.msg,
		detail: d,
	}
}

func (e *codeError) Wrap() error {
	return stack.New(e, stackSkip)
}

func (e *codeError) WrapMsg(msg string, kv ...any) error {
	return stack.New(e.WithDetail(toString(msg, kv)), stackSkip)
}

func (e *codeError) Is(err error) bool {
	codeErr, ok := CodeErrorOf(err)
	if !ok {
		return err == nil && e == nil
	}
	if e == nil {
		return false
	}
	code := codeErr.Code()
	if e.code == code {
		return true
	}
	return DefaultCodeRelation.Is(e.code, code)
}

func (e *codeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.code), e.msg)
	if e.detail != "" {
		v = append(v, e.detail)
	}
	return strings.Join(v, " ")
}

// CodeErrorOf 从错误链中提取业务码错误。
func CodeErrorOf(err error) (CodeError, bool) {
	var codeErr *codeError
	if errors.As(err, &codeErr) {
		return codeErr, true
	}
	return nil, false
}

// CodeOf 返回错误的业务码；非业务码错误一律按 ServerInternalError 处理。
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	if codeErr, ok := CodeErrorOf(err); ok {
		return codeErr.Code()
	}
	return ServerInternalError
}
