package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chariledger/internal/ledger"
	"chariledger/internal/ledger/ports"
)

func TestPublisher_SyncMode(t *testing.T) {
	sink := NewMemorySink()
	pub := New([]ports.EventSink{sink})
	defer pub.Close()

	err := pub.Emit(context.Background(), ledger.CharityVerified{CharityID: 1, Verified: true})
	require.NoError(t, err)

	envs := sink.Envelopes()
	require.Len(t, envs, 1)
	assert.Equal(t, "CharityVerified", envs[0].Name)
	assert.False(t, envs[0].Timestamp.IsZero())
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	sink := NewMemorySink()
	pub := New([]ports.EventSink{sink}, WithAsyncBuffer(100))

	donor := common.HexToAddress("0x2222222222222222222222222222222222222222")
	for i := 0; i < 10; i++ {
		err := pub.Emit(context.Background(), ledger.DonationMade{
			DonationID: uint64(i + 1),
			CharityID:  1,
			Donor:      donor,
			Amount:     100,
		})
		require.NoError(t, err)
	}

	pub.Close()

	assert.Len(t, sink.Envelopes(), 10, "all events should be drained on close")
}

func TestPublisher_AsyncMode(t *testing.T) {
	sink := NewMemorySink()
	pub := New([]ports.EventSink{sink}, WithAsyncBuffer(10))
	defer pub.Close()

	err := pub.Emit(context.Background(), ledger.PlatformFeeUpdated{FeeRateBps: 300})
	require.NoError(t, err)

	// Wait for the background worker.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(sink.Envelopes()) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	envs := sink.Envelopes()
	require.Len(t, envs, 1)
	assert.Equal(t, "PlatformFeeUpdated", envs[0].Name)
}

func TestPublisher_FansOutToAllSinks(t *testing.T) {
	first := NewMemorySink()
	second := NewMemorySink()
	pub := New([]ports.EventSink{first, second})
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), ledger.CharityStatusUpdated{CharityID: 3, IsActive: false}))

	assert.Len(t, first.Envelopes(), 1)
	assert.Len(t, second.Envelopes(), 1)
}
