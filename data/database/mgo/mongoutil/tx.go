package mongoutil

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"PSocial/data/database/utils/tx"
	"PSocial/tools/errs"
)

// NewMongoTx 构造 Mongo 事务执行器。
// 单机部署（无副本集）不支持多文档事务，此时退化为直接执行 fn。
func NewMongoTx(ctx context.Context, client *mongo.Client) (tx.Tx, error) {
	mtx := mongoTx{client: client}
	if err := mtx.init(ctx); err != nil {
		return nil, err
	}
	return &mtx, nil
}

type mongoTx struct {
	client *mongo.Client
	tx     func(context.Context, func(ctx context.Context) error) error
}

func (m *mongoTx) init(ctx context.Context) error {
	var res map[string]any
	if err := m.client.Database("admin").RunCommand(ctx, bson.M{"isMaster": 1}).Decode(&res); err != nil {
		return errs.WrapMsg(err, "check mongo deployment mode failed")
	}
	if _, allowTx := res["setName"]; !allowTx {
		return nil // standalone，无事务能力
	}
	// 不用 sess.WithTransaction: 它会对 TransientTransactionError 自动重跑回调,
	// 而合法性检查在回调之外, 重跑会绕过检查静默改写。冲突一律上抛, 由调用方决定。
	m.tx = func(fnCtx context.Context, fn func(ctx context.Context) error) error {
		sess, err := m.client.StartSession()
		if err != nil {
			return errs.WrapMsg(err, "mongodb start session failed")
		}
		defer sess.EndSession(fnCtx)
		err = mongo.WithSession(fnCtx, sess, func(sessCtx mongo.SessionContext) error {
			if err := sess.StartTransaction(); err != nil {
				return err
			}
			if err := fn(sessCtx); err != nil {
				_ = sess.AbortTransaction(sessCtx)
				return err
			}
			return sess.CommitTransaction(sessCtx)
		})
		return errs.Wrap(err)
	}
	return nil
}

func (m *mongoTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.tx == nil {
		return fn(ctx)
	}
	return m.tx(ctx, fn)
}

// IsDuplicateKeyError 唯一索引冲突。
func IsDuplicateKeyError(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsWriteConflict 事务提交时的写写冲突（并发修改了同一文档）。
func IsWriteConflict(err error) bool {
	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return cmdErr.HasErrorLabel("TransientTransactionError") || cmdErr.Code == 112
}
