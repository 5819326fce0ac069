package service

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"chariledger/internal/ledger"
	dErrors "chariledger/pkg/domain-errors"
	"chariledger/pkg/platform/sentinel"
)

// Queries are side-effect free and read the most recently committed
// state; they never fail except for bad ids.

func (s *Service) GetCharity(ctx context.Context, id uint64) (ledger.Charity, error) {
	c, err := s.store.GetCharity(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return ledger.Charity{}, dErrors.New(dErrors.CodeNotFound, "charity not found")
	}
	if err != nil {
		return ledger.Charity{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load charity")
	}
	return c, nil
}

func (s *Service) GetDonation(ctx context.Context, id uint64) (ledger.Donation, error) {
	d, err := s.store.GetDonation(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return ledger.Donation{}, dErrors.New(dErrors.CodeNotFound, "donation not found")
	}
	if err != nil {
		return ledger.Donation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation")
	}
	return d, nil
}

func (s *Service) TotalCharities(ctx context.Context) (uint64, error) {
	total, err := s.store.TotalCharities(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count charities")
	}
	return total, nil
}

// CharityProgress reports raised, target and floor(raised*100/target).
func (s *Service) CharityProgress(ctx context.Context, id uint64) (ledger.Progress, error) {
	c, err := s.GetCharity(ctx, id)
	if err != nil {
		return ledger.Progress{}, err
	}
	return ledger.Progress{
		Raised:     c.RaisedAmount,
		Target:     c.TargetAmount,
		Percentage: progressPercentage(c.RaisedAmount, c.TargetAmount),
	}, nil
}

// UserCharities lists the ids of charities the address created, in
// creation order.
func (s *Service) UserCharities(ctx context.Context, creator common.Address) ([]uint64, error) {
	ids, err := s.store.CharitiesByCreator(ctx, creator)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list user charities")
	}
	return ids, nil
}

// UserDonations lists the ids of donations the address funded, in
// creation order.
func (s *Service) UserDonations(ctx context.Context, donor common.Address) ([]uint64, error) {
	ids, err := s.store.DonationsByDonor(ctx, donor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list user donations")
	}
	return ids, nil
}

// CharityDonations lists the ids of donations made to the charity, in
// creation order. The charity must exist.
func (s *Service) CharityDonations(ctx context.Context, charityID uint64) ([]uint64, error) {
	if _, err := s.GetCharity(ctx, charityID); err != nil {
		return nil, err
	}
	ids, err := s.store.DonationsByCharity(ctx, charityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list charity donations")
	}
	return ids, nil
}

// FeeRateBps returns the current platform fee rate.
func (s *Service) FeeRateBps(ctx context.Context) (uint64, error) {
	rate, err := s.store.FeeRateBps(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read fee rate")
	}
	return rate, nil
}
