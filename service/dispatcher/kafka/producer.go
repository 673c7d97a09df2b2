package kafka

import (
	"github.com/Shopify/sarama"
	"github.com/golang/glog"
)

type Producer struct {
	sp    sarama.SyncProducer
	topic string
}

func NewProducer(client sarama.Client, topic string) (*Producer, error) {
	sp, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		return nil, err
	}
	return &Producer{sp: sp, topic: topic}, nil
}

// Send key 用事件键 (area:user), HashPartitioner 保证同一目标的事件有序。
func (p *Producer) Send(key string, value []byte) error {
	partition, offset, err := p.sp.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return err
	}
	glog.V(2).Infof("[kafka] sent topic=%s partition=%d offset=%d key=%s", p.topic, partition, offset, key)
	return nil
}

func (p *Producer) Close() error { return p.sp.Close() }
