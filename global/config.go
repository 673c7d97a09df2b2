package global

import (
	"context"

	"PSocial/data/database/mgo/mongoutil"
	mgoSrv "PSocial/service/mgo"
	redis "PSocial/service/storage/redis"
	"PSocial/tools/errs"
	ids "PSocial/tools/ids"
	"PSocial/tools/specialerror"
)

func ConfigAll(cfg *AppConfig) {
	ConfigIds()
	ConfigErrHandlers()
	ConfigRedis(cfg)
	ConfigMgo(cfg)
}

func ConfigIds() {
	ids.SetNodeID(100)
}

func GetJwtSecret(cfg *AppConfig) []byte {
	if cfg.JWT.Secret != "" {
		return []byte(cfg.JWT.Secret)
	}
	// 本地联调兜底, 生产必须用 JWT_SECRET 覆盖
	return []byte("mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o=")
}

func ConfigRedis(cfg *AppConfig) {
	err := redis.InitRedis(redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return
	}
}

func ConfigMgo(cfg *AppConfig) {
	go func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mcfg := &mongoutil.Config{
			Uri:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
			Username:    cfg.Mongo.Username,
			Password:    cfg.Mongo.Password,
			MaxRetry:    3,
		}

		// 异步启动, 掉线自动重连
		mgoSrv.StartAsync(ctx, mcfg)
		if err := mgoSrv.WaitReady(ctx, mgoSrv.Manager()); err != nil {
			return
		}
		<-ctx.Done()
	}()
}

// ConfigErrHandlers 注册底层存储错误到业务码的转换。
func ConfigErrHandlers() {
	_ = specialerror.AddErrHandler(func(err error) errs.CodeError {
		if mongoutil.IsDuplicateKeyError(err) {
			return errs.ErrDuplicateKey.WithDetail(err.Error())
		}
		return nil
	})
	_ = specialerror.AddErrHandler(func(err error) errs.CodeError {
		if mongoutil.IsWriteConflict(err) {
			return errs.ErrDuplicateKey.WithDetail(err.Error())
		}
		return nil
	})
}
