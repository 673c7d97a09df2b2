package tx

import "context"

// Tx 多记录原子更新的事务边界。
// fn 内所有写要么全部提交，要么全部回滚；不做自动重试，
// 提交失败原样抛给调用方定性（冲突 or 内部错误）。
type Tx interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
