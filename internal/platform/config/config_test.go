package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults with required addresses", func(t *testing.T) {
		t.Setenv("CHARILEDGER_OWNER", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		t.Setenv("CHARILEDGER_FEE_RECIPIENT", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, uint64(250), cfg.FeeRateBps)
		assert.Equal(t, common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), cfg.Owner)
	})

	t.Run("missing owner fails", func(t *testing.T) {
		t.Setenv("CHARILEDGER_OWNER", "")
		t.Setenv("CHARILEDGER_FEE_RECIPIENT", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("fee rate over cap fails", func(t *testing.T) {
		t.Setenv("CHARILEDGER_OWNER", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		t.Setenv("CHARILEDGER_FEE_RECIPIENT", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
		t.Setenv("CHARILEDGER_FEE_BPS", "1001")

		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("custom fee rate and brokers", func(t *testing.T) {
		t.Setenv("CHARILEDGER_OWNER", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		t.Setenv("CHARILEDGER_FEE_RECIPIENT", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
		t.Setenv("CHARILEDGER_FEE_BPS", "500")
		t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, uint64(500), cfg.FeeRateBps)
		assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	})
}
