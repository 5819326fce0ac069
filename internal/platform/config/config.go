// Package config assembles runtime configuration from the environment
// so main stays lean.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"chariledger/internal/ledger"
)

// Server holds everything cmd/server needs to wire the ledger.
type Server struct {
	Addr string

	// Owner has exclusive administrative rights; set once here, never
	// mutable at runtime.
	Owner common.Address
	// FeeRecipient receives the fee portion of every donation.
	FeeRecipient common.Address
	// FeeRateBps is the initial platform fee in basis points.
	FeeRateBps uint64

	// DatabaseURL switches persistence to PostgreSQL when set.
	DatabaseURL string

	// KafkaBrokers/KafkaTopic enable the Kafka notification sink.
	KafkaBrokers []string
	KafkaTopic   string

	// AMQPURL/AMQPExchange enable the RabbitMQ notification sink.
	AMQPURL      string
	AMQPExchange string

	LogLevel slog.Level
}

// FromEnv builds a Server config. A .env file is honored when present
// but real environment variables win.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:         envOr("CHARILEDGER_ADDR", ":8080"),
		FeeRateBps:   250,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		KafkaTopic:   envOr("KAFKA_TOPIC", "chariledger.events"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", "chariledger"),
		LogLevel:     slog.LevelInfo,
	}

	owner := os.Getenv("CHARILEDGER_OWNER")
	if !common.IsHexAddress(owner) {
		return Server{}, fmt.Errorf("CHARILEDGER_OWNER must be a hex address, got %q", owner)
	}
	cfg.Owner = common.HexToAddress(owner)

	recipient := os.Getenv("CHARILEDGER_FEE_RECIPIENT")
	if !common.IsHexAddress(recipient) {
		return Server{}, fmt.Errorf("CHARILEDGER_FEE_RECIPIENT must be a hex address, got %q", recipient)
	}
	cfg.FeeRecipient = common.HexToAddress(recipient)

	if raw := os.Getenv("CHARILEDGER_FEE_BPS"); raw != "" {
		bps, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Server{}, fmt.Errorf("CHARILEDGER_FEE_BPS must be an integer: %w", err)
		}
		cfg.FeeRateBps = bps
	}
	if cfg.FeeRateBps > ledger.MaxFeeRateBps {
		return Server{}, fmt.Errorf("CHARILEDGER_FEE_BPS %d exceeds the %d bps cap", cfg.FeeRateBps, ledger.MaxFeeRateBps)
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if os.Getenv("CHARILEDGER_DEBUG") == "true" {
		cfg.LogLevel = slog.LevelDebug
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
