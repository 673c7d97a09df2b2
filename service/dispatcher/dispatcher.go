package dispatcher

import (
	"context"
	"encoding/json"

	"PSocial/module/social/model"
	"PSocial/service/natsx"

	"github.com/pkg/errors"
)

// EventBus 跨节点事件总线: 每个网关既发布也消费,
// 消费侧跳过自己发出的信封 (本地已经投递过)。
type EventBus interface {
	Publish(ctx context.Context, env *model.EventEnvelope) error
	Subscribe(deliver func(env *model.EventEnvelope)) error
	Close() error
}

const busBiz = "social.events"

// NatsBus 默认后端: Core 模式广播订阅 (Queue 置空, 每个网关都收到全量)。
type NatsBus struct {
	mgr  *natsx.NatsManager
	gwID string
}

func NewNatsBus(cfg natsx.NatsxConfig, subject, gwID string) (*NatsBus, error) {
	mgr, err := natsx.NewNatsManager(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect nats")
	}
	if err := mgr.RegisterRoute(natsx.NatsxRoute{
		Biz:     busBiz,
		Subject: subject,
		Mode:    natsx.Core,
	}); err != nil {
		_ = mgr.Close()
		return nil, errors.Wrap(err, "register route")
	}
	return &NatsBus{mgr: mgr, gwID: gwID}, nil
}

func (b *NatsBus) Publish(ctx context.Context, env *model.EventEnvelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}
	return b.mgr.Publish(ctx, busBiz, raw, map[string]string{"origin": env.OriginGateway})
}

func (b *NatsBus) Subscribe(deliver func(env *model.EventEnvelope)) error {
	return b.mgr.Subscribe(busBiz, func(_ context.Context, msg natsx.NatsxMessage) error {
		env := &model.EventEnvelope{}
		if err := json.Unmarshal(msg.Data, env); err != nil {
			return errors.Wrap(err, "decode envelope")
		}
		if env.OriginGateway == b.gwID {
			return nil
		}
		deliver(env)
		return nil
	})
}

func (b *NatsBus) Close() error { return b.mgr.Close() }
