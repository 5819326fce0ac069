package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chariledger/internal/ledger"
	"chariledger/internal/ledger/ports"
	"chariledger/pkg/platform/sentinel"
)

var (
	creator = common.HexToAddress("0x1111111111111111111111111111111111111111")
	donor   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	wallet  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func newCharity() ledger.Charity {
	return ledger.Charity{
		Wallet:       wallet,
		Creator:      creator,
		Name:         "Clean Water",
		Description:  "Wells for rural communities",
		Category:     "Healthcare",
		TargetAmount: 1_000_000,
		CreatedAt:    time.Unix(1700000000, 0),
		IsActive:     true,
	}
}

func TestCreateCharityAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := New(250)

	for want := uint64(1); want <= 3; want++ {
		var got uint64
		err := s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
			var err error
			got, err = tx.CreateCharity(ctx, newCharity())
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	total, err := s.TotalCharities(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)

	ids, err := s.CharitiesByCreator(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestRollbackDiscardsEveryMutation(t *testing.T) {
	ctx := context.Background()
	s := New(250)

	var charityID uint64
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		charityID, err = tx.CreateCharity(ctx, newCharity())
		return err
	}))

	boom := errors.New("transfer failed")
	err := s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.InsertDonation(ctx, ledger.Donation{CharityID: charityID, Donor: donor, Amount: 975}); err != nil {
			return err
		}
		if err := tx.SetVerified(ctx, charityID, true); err != nil {
			return err
		}
		if err := tx.SetFeeRateBps(ctx, 500); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	c, err := s.GetCharity(ctx, charityID)
	require.NoError(t, err)
	assert.Zero(t, c.RaisedAmount)
	assert.False(t, c.IsVerified)

	_, err = s.GetDonation(ctx, 1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	ids, err := s.DonationsByDonor(ctx, donor)
	require.NoError(t, err)
	assert.Empty(t, ids)

	rate, err := s.FeeRateBps(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), rate, "fee rate survives rollback")

	// The rolled-back donation id is reallocated by the next commit.
	var donationID uint64
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		donationID, err = tx.InsertDonation(ctx, ledger.Donation{CharityID: charityID, Donor: donor, Amount: 10})
		return err
	}))
	assert.Equal(t, uint64(1), donationID)
}

func TestInsertDonationUpdatesRaisedAndIndices(t *testing.T) {
	ctx := context.Background()
	s := New(250)

	var charityID uint64
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		charityID, err = tx.CreateCharity(ctx, newCharity())
		return err
	}))

	for i := 0; i < 2; i++ {
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
			_, err := tx.InsertDonation(ctx, ledger.Donation{CharityID: charityID, Donor: donor, Amount: 500})
			return err
		}))
	}

	c, err := s.GetCharity(ctx, charityID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), c.RaisedAmount)

	byDonor, err := s.DonationsByDonor(ctx, donor)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, byDonor)

	byCharity, err := s.DonationsByCharity(ctx, charityID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, byCharity)
}

func TestInsertDonationUnknownCharity(t *testing.T) {
	ctx := context.Background()
	s := New(250)

	err := s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		_, err := tx.InsertDonation(ctx, ledger.Donation{CharityID: 42, Donor: donor, Amount: 1})
		return err
	})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestReadYourWritesInsideTx(t *testing.T) {
	ctx := context.Background()
	s := New(250)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		id, err := tx.CreateCharity(ctx, newCharity())
		require.NoError(t, err)

		if err := tx.SetVerified(ctx, id, true); err != nil {
			return err
		}
		c, err := tx.GetCharity(ctx, id)
		require.NoError(t, err)
		assert.True(t, c.IsVerified)

		_, err = tx.InsertDonation(ctx, ledger.Donation{CharityID: id, Donor: donor, Amount: 7})
		return err
	}))

	c, err := s.GetCharity(ctx, 1)
	require.NoError(t, err)
	assert.True(t, c.IsVerified)
	assert.Equal(t, uint64(7), c.RaisedAmount)
}

func TestQueriesOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := New(250)

	total, err := s.TotalCharities(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	ids, err := s.DonationsByCharity(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = s.GetCharity(ctx, 1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
