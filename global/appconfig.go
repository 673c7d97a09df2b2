package global

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig 进程全量配置。YAML 载入后再用环境变量覆盖敏感项。
type AppConfig struct {
	Gateway struct {
		NodeID string `yaml:"node_id"`
		Port   int    `yaml:"port"`
	} `yaml:"gateway"`

	JWT struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Mongo struct {
		URI         string `yaml:"uri"`
		Database    string `yaml:"database"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		MaxPoolSize int    `yaml:"max_pool_size"`
	} `yaml:"mongo"`

	Dispatch struct {
		Backend      string   `yaml:"backend"` // nats / kafka / none
		NatsServers  []string `yaml:"nats_servers"`
		NatsSubject  string   `yaml:"nats_subject"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"dispatch"`

	PresenceTTL time.Duration `yaml:"presence_ttl"`
}

// DefaultConfig 单机联调可直接起。
func DefaultConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.Gateway.NodeID = "gw-1"
	cfg.Gateway.Port = 8080
	cfg.JWT.TTL = 2 * time.Hour
	cfg.Redis.Addr = "127.0.0.1:6379"
	cfg.Mongo.URI = "mongodb://localhost:27017"
	cfg.Mongo.Database = "social"
	cfg.Mongo.MaxPoolSize = 20
	cfg.Dispatch.Backend = "none"
	cfg.PresenceTTL = 24 * time.Hour
	return cfg
}

// LoadConfig 读 YAML (路径为空用默认值), 然后套环境变量覆盖。
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("GATEWAY_NODE_ID"); v != "" {
		cfg.Gateway.NodeID = v
	}
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = p
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_PASSWORD"); v != "" {
		cfg.Mongo.Password = v
	}
}
