package kafka

import (
	"context"

	"github.com/Shopify/sarama"
	"github.com/golang/glog"
)

// deliverFunc 把一条原始消息交给上层。
type deliverFunc func(value []byte)

type groupHandler struct {
	deliver deliverFunc
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	glog.Info("[kafka] consumer group setup")
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	glog.Info("[kafka] consumer group cleanup")
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		h.deliver(msg.Value)
		session.MarkMessage(msg, "")
	}
	return nil
}

// startConsumerGroup 阻塞消费循环, ctx 取消后退出。
func startConsumerGroup(ctx context.Context, client sarama.Client, groupID, topic string, deliver deliverFunc) error {
	group, err := sarama.NewConsumerGroupFromClient(groupID, client)
	if err != nil {
		return err
	}
	go func() {
		for err := range group.Errors() {
			glog.Errorf("[kafka] consumer group error: %v", err)
		}
	}()
	go func() {
		defer func() { _ = group.Close() }()
		handler := &groupHandler{deliver: deliver}
		for {
			if err := group.Consume(ctx, []string{topic}, handler); err != nil {
				glog.Errorf("[kafka] consume error: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return nil
}
