package decode

import (
	"github.com/mitchellh/mapstructure"

	"PSocial/tools/errs"
)

// Options 用于定制 Decode 行为。
type Options struct {
	// 是否启用宽松解码（默认 true）：
	// 例如 "123" -> int、1.0 -> int64 等。
	WeaklyTypedInput bool
}

// DefaultOptions 返回默认选项。
func DefaultOptions() Options {
	return Options{
		WeaklyTypedInput: true,
	}
}

// WithWeaklyTypedInput 便捷开关。
func WithWeaklyTypedInput(v bool) Options {
	return Options{WeaklyTypedInput: v}
}

// DecodePayload 将松散的 map 负载解码到任意结构体 T。
// T 通常是业务负载，例如 AuthPayload / StatusPayload 等。
// 结构体字段读取使用 `json` tag。
func DecodePayload[T any](m map[string]any, opts ...Options) (*T, error) {
	if m == nil {
		return nil, errs.New("payload is nil").Wrap()
	}

	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
	}
	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, errs.WrapMsg(err, "new decoder failed")
	}
	if err := dec.Decode(m); err != nil {
		return nil, errs.WrapMsg(err, "decode payload failed")
	}
	return &out, nil
}
