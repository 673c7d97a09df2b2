package stack

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

const maxDepth = 32

// stackError 在原始错误上附加创建时的调用栈，%+v 时输出。
type stackError struct {
	err   error
	stack []uintptr
}

// New 包装错误并采集调用栈；skip 为跳过的栈帧数。
func New(err error, skip int) error {
	if err == nil {
		return nil
	}
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	return &stackError{err: err, stack: pcs[:n]}
}

func (e *stackError) Error() string { return e.err.Error() }

func (e *stackError) Unwrap() error { return e.err }

func (e *stackError) Is(target error) bool {
	if is, ok := e.err.(interface{ Is(error) bool }); ok {
		return is.Is(target)
	}
	return false
}

func (e *stackError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "%s\n%s", e.err.Error(), e.formatStack())
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.err.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.err.Error())
	}
}

func (e *stackError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		f, more := frames.Next()
		if f.Function == "" {
			break
		}
		sb.WriteString(f.Function)
		sb.WriteString("\n\t")
		sb.WriteString(f.File)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(f.Line))
		sb.WriteString("\n")
		if !more {
			break
		}
	}
	return sb.String()
}
