package config

import (
	"fmt"
	"strings"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	KafkaBrokers      string `env:"KAFKA_BROKERS,required=true"`
	KafkaGroupID      string `env:"KAFKA_GROUP_ID,default=notification-service"`
	OrderTopic        string `env:"KAFKA_ORDER_TOPIC,default=order-placed"`
	NotificationTopic string `env:"KAFKA_NOTIFICATION_TOPIC,default=notification-requested"`

	OrderServiceURL   string `env:"ORDER_SERVICE_URL,required=true"`
	ProductServiceURL string `env:"PRODUCT_SERVICE_URL,required=true"`
	EnrichTimeoutMS   int    `env:"ENRICH_TIMEOUT_MS,default=2000"`

	SMTPHost       string `env:"SMTP_HOST,required=true"`
	SMTPPort       int    `env:"SMTP_PORT,default=587"`
	SMTPUsername   string `env:"SMTP_USERNAME"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`
	SMTPFrom       string `env:"SMTP_FROM,required=true"`
	SMSGatewayURL  string `env:"SMS_GATEWAY_URL"`
	PushGatewayURL string `env:"PUSH_GATEWAY_URL"`
	SendTimeoutMS  int    `env:"SEND_TIMEOUT_MS,default=10000"`

	RateLimitPerSec     int     `env:"RATE_LIMIT_PER_SEC,default=100"`
	BulkheadCapacity    int     `env:"BULKHEAD_CAPACITY,default=16"`
	BulkheadWaitMS      int     `env:"BULKHEAD_WAIT_MS,default=0"`
	RetryMaxAttempts    int     `env:"RETRY_MAX_ATTEMPTS,default=3"`
	BreakerFailureRatio float64 `env:"BREAKER_FAILURE_RATIO,default=0.5"`
	BreakerWindowSize   int     `env:"BREAKER_WINDOW_SIZE,default=10"`
	BreakerMinCalls     int     `env:"BREAKER_MIN_CALLS,default=5"`
	BreakerCooldownMS   int     `env:"BREAKER_COOLDOWN_MS,default=10000"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// BrokerList splits KAFKA_BROKERS on commas, dropping empty entries.
func (c *Config) BrokerList() []string {
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
