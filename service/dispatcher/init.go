package dispatcher

import (
	"fmt"

	"PSocial/service/dispatcher/kafka"
	"PSocial/service/natsx"
)

// Config 总线配置, Backend 选 nats / kafka / none。
type Config struct {
	Backend string

	NatsServers []string
	NatsSubject string

	KafkaBrokers []string
	KafkaTopic   string
}

// Init 按配置装配总线。单节点部署 Backend=none 返回 nil 总线。
func Init(cfg Config, gwID string) (EventBus, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "nats":
		subject := cfg.NatsSubject
		if subject == "" {
			subject = "social.events"
		}
		return NewNatsBus(natsx.NatsxConfig{
			Servers: cfg.NatsServers,
			Name:    "social-gw-" + gwID,
		}, subject, gwID)
	case "kafka":
		topic := cfg.KafkaTopic
		if topic == "" {
			topic = "social-events"
		}
		return kafka.NewBus(kafka.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   topic,
			// 每网关独立消费组, 消费组之间互为广播
			GroupID: "social-gw-" + gwID,
		}, gwID)
	default:
		return nil, fmt.Errorf("unknown dispatch backend: %s", cfg.Backend)
	}
}
