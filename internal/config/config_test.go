package config

import (
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "host=localhost user=test password=test dbname=test port=5432 sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("ORDER_SERVICE_URL", "http://localhost:8081")
	t.Setenv("PRODUCT_SERVICE_URL", "http://localhost:8082")
	t.Setenv("SMTP_HOST", "localhost")
	t.Setenv("SMTP_FROM", "noreply@example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.RateLimitPerSec != 100 {
		t.Errorf("RateLimitPerSec = %d, want 100", cfg.RateLimitPerSec)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("RetryMaxAttempts = %d, want 3", cfg.RetryMaxAttempts)
	}
	if cfg.KafkaGroupID != "notification-service" {
		t.Errorf("KafkaGroupID = %s, want notification-service", cfg.KafkaGroupID)
	}
	if cfg.OrderTopic != "order-placed" {
		t.Errorf("OrderTopic = %s, want order-placed", cfg.OrderTopic)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BREAKER_FAILURE_RATIO", "0.75")
	t.Setenv("BULKHEAD_CAPACITY", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.BreakerFailureRatio != 0.75 {
		t.Errorf("BreakerFailureRatio = %f, want 0.75", cfg.BreakerFailureRatio)
	}
	if cfg.BulkheadCapacity != 4 {
		t.Errorf("BulkheadCapacity = %d, want 4", cfg.BulkheadCapacity)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_DSN", "host=localhost")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required variables")
	}
}

func TestBrokerList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092, ,broker-3:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	brokers := cfg.BrokerList()
	want := []string{"broker-1:9092", "broker-2:9092", "broker-3:9092"}
	if len(brokers) != len(want) {
		t.Fatalf("BrokerList() = %v, want %v", brokers, want)
	}
	for i := range want {
		if brokers[i] != want[i] {
			t.Fatalf("BrokerList()[%d] = %s, want %s", i, brokers[i], want[i])
		}
	}
}
