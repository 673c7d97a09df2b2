package specialerror

import (
	"errors"

	"PSocial/tools/errs"
)

var handlers []func(err error) errs.CodeError

// AddErrHandler 注册底层错误到业务码错误的转换器（如 Mongo 写冲突 -> 冲突码）。
func AddErrHandler(h func(err error) errs.CodeError) error {
	if h == nil {
		return errs.New("nil handler").Wrap()
	}
	handlers = append(handlers, h)
	return nil
}

// ErrCode 将任意错误归一化为业务码错误：
// 已是业务码错误的原样返回，否则依次询问注册的转换器，
// 都认不出来就按内部错误处理。
func ErrCode(err error) errs.CodeError {
	if err == nil {
		return nil
	}
	if codeErr, ok := errs.CodeErrorOf(err); ok {
		return codeErr
	}
	for _, h := range handlers {
		if codeErr := h(err); codeErr != nil {
			return codeErr
		}
	}
	return errs.ErrInternalServer.WithDetail(err.Error())
}

func ErrString(err error) errs.Error {
	var codeErr errs.Error
	if errors.As(err, &codeErr) {
		return codeErr
	}
	return nil
}

func ErrWrapper(err error) errs.ErrWrapper {
	var codeErr errs.ErrWrapper
	if errors.As(err, &codeErr) {
		return codeErr
	}
	return nil
}
