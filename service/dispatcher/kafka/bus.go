package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"PSocial/global"
	"PSocial/module/social/model"

	"github.com/Shopify/sarama"
	"github.com/golang/glog"
)

// Bus Kafka 后端的事件总线。每个网关使用独立消费组,
// 消费组之间互为广播; 自己发出的信封在消费侧按 origin 跳过。
type Bus struct {
	cfg      Config
	client   sarama.Client
	producer *Producer
	gwID     string

	cancel context.CancelFunc
}

func NewBus(cfg Config, gwID string) (*Bus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers missing")
	}
	client, err := sarama.NewClient(cfg.Brokers, BuildBaseConfig(cfg))
	if err != nil {
		return nil, err
	}
	producer, err := NewProducer(client, cfg.Topic)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Bus{cfg: cfg, client: client, producer: producer, gwID: gwID}, nil
}

func (b *Bus) Publish(_ context.Context, env *model.EventEnvelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.producer.Send(global.GetEventKey(env.Area, env.ToUserID), raw)
}

func (b *Bus) Subscribe(deliver func(env *model.EventEnvelope)) error {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	return startConsumerGroup(ctx, b.client, b.cfg.GroupID, b.cfg.Topic, func(value []byte) {
		env := &model.EventEnvelope{}
		if err := json.Unmarshal(value, env); err != nil {
			glog.Errorf("[kafka] decode envelope: %v", err)
			return
		}
		if env.OriginGateway == b.gwID {
			return
		}
		deliver(env)
	})
}

func (b *Bus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	if err := b.producer.Close(); err != nil {
		return err
	}
	return b.client.Close()
}
