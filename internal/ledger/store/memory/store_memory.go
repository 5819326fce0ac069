// Package memory provides the in-memory ledger store. It favors
// clarity over performance and is the default for embedded use and
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"chariledger/internal/ledger"
	"chariledger/internal/ledger/ports"
	"chariledger/pkg/platform/sentinel"
)

// Store keeps all ledger state in maps guarded by a single RWMutex.
// WithinTx holds the write lock for the whole transaction, so mutating
// calls are fully serialized while reads may run concurrently between
// commits.
type Store struct {
	mu sync.RWMutex

	charities map[uint64]ledger.Charity
	donations map[uint64]ledger.Donation

	byCreator map[common.Address][]uint64
	byDonor   map[common.Address][]uint64
	byCharity map[uint64][]uint64

	// Next ids to allocate. Sequences start at 1 and never reuse.
	nextCharityID  uint64
	nextDonationID uint64

	feeRateBps uint64
}

// New creates an empty store with the given initial fee rate.
func New(feeRateBps uint64) *Store {
	return &Store{
		charities:      make(map[uint64]ledger.Charity),
		donations:      make(map[uint64]ledger.Donation),
		byCreator:      make(map[common.Address][]uint64),
		byDonor:        make(map[common.Address][]uint64),
		byCharity:      make(map[uint64][]uint64),
		nextCharityID:  1,
		nextDonationID: 1,
		feeRateBps:     feeRateBps,
	}
}

func (s *Store) GetCharity(_ context.Context, id uint64) (ledger.Charity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.charities[id]; ok {
		return c, nil
	}
	return ledger.Charity{}, sentinel.ErrNotFound
}

func (s *Store) GetDonation(_ context.Context, id uint64) (ledger.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.donations[id]; ok {
		return d, nil
	}
	return ledger.Donation{}, sentinel.ErrNotFound
}

func (s *Store) TotalCharities(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextCharityID - 1, nil
}

func (s *Store) CharitiesByCreator(_ context.Context, creator common.Address) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyIDs(s.byCreator[creator]), nil
}

func (s *Store) DonationsByDonor(_ context.Context, donor common.Address) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyIDs(s.byDonor[donor]), nil
}

func (s *Store) DonationsByCharity(_ context.Context, charityID uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyIDs(s.byCharity[charityID]), nil
}

func (s *Store) FeeRateBps(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feeRateBps, nil
}

// WithinTx runs fn against a staged overlay. Mutations touch only the
// overlay; they merge into the base state when fn returns nil and are
// discarded otherwise, so a failed operation leaves zero observable
// side effects.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		base:           s,
		charities:      make(map[uint64]ledger.Charity),
		donations:      make(map[uint64]ledger.Donation),
		byCreator:      make(map[common.Address][]uint64),
		byDonor:        make(map[common.Address][]uint64),
		byCharity:      make(map[uint64][]uint64),
		nextCharityID:  s.nextCharityID,
		nextDonationID: s.nextDonationID,
		feeRateBps:     s.feeRateBps,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func copyIDs(ids []uint64) []uint64 {
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// memTx overlays staged mutations on the base store. The base write
// lock is held for the transaction's lifetime, so reads here go
// straight at the base maps.
type memTx struct {
	base *Store

	charities map[uint64]ledger.Charity
	donations map[uint64]ledger.Donation

	// Index overlays hold appended ids only.
	byCreator map[common.Address][]uint64
	byDonor   map[common.Address][]uint64
	byCharity map[uint64][]uint64

	nextCharityID  uint64
	nextDonationID uint64
	feeRateBps     uint64
}

func (tx *memTx) GetCharity(_ context.Context, id uint64) (ledger.Charity, error) {
	if c, ok := tx.charities[id]; ok {
		return c, nil
	}
	if c, ok := tx.base.charities[id]; ok {
		return c, nil
	}
	return ledger.Charity{}, sentinel.ErrNotFound
}

func (tx *memTx) GetDonation(_ context.Context, id uint64) (ledger.Donation, error) {
	if d, ok := tx.donations[id]; ok {
		return d, nil
	}
	if d, ok := tx.base.donations[id]; ok {
		return d, nil
	}
	return ledger.Donation{}, sentinel.ErrNotFound
}

func (tx *memTx) TotalCharities(_ context.Context) (uint64, error) {
	return tx.nextCharityID - 1, nil
}

func (tx *memTx) CharitiesByCreator(_ context.Context, creator common.Address) ([]uint64, error) {
	return append(copyIDs(tx.base.byCreator[creator]), tx.byCreator[creator]...), nil
}

func (tx *memTx) DonationsByDonor(_ context.Context, donor common.Address) ([]uint64, error) {
	return append(copyIDs(tx.base.byDonor[donor]), tx.byDonor[donor]...), nil
}

func (tx *memTx) DonationsByCharity(_ context.Context, charityID uint64) ([]uint64, error) {
	return append(copyIDs(tx.base.byCharity[charityID]), tx.byCharity[charityID]...), nil
}

func (tx *memTx) FeeRateBps(_ context.Context) (uint64, error) {
	return tx.feeRateBps, nil
}

func (tx *memTx) CreateCharity(_ context.Context, c ledger.Charity) (uint64, error) {
	c.ID = tx.nextCharityID
	tx.nextCharityID++
	tx.charities[c.ID] = c
	tx.byCreator[c.Creator] = append(tx.byCreator[c.Creator], c.ID)
	return c.ID, nil
}

func (tx *memTx) InsertDonation(ctx context.Context, d ledger.Donation) (uint64, error) {
	c, err := tx.GetCharity(ctx, d.CharityID)
	if err != nil {
		return 0, err
	}

	d.ID = tx.nextDonationID
	tx.nextDonationID++
	tx.donations[d.ID] = d

	c.RaisedAmount += d.Amount
	tx.charities[c.ID] = c

	tx.byDonor[d.Donor] = append(tx.byDonor[d.Donor], d.ID)
	tx.byCharity[d.CharityID] = append(tx.byCharity[d.CharityID], d.ID)
	return d.ID, nil
}

func (tx *memTx) SetVerified(ctx context.Context, charityID uint64, verified bool) error {
	c, err := tx.GetCharity(ctx, charityID)
	if err != nil {
		return err
	}
	c.IsVerified = verified
	tx.charities[charityID] = c
	return nil
}

func (tx *memTx) SetActive(ctx context.Context, charityID uint64, active bool) error {
	c, err := tx.GetCharity(ctx, charityID)
	if err != nil {
		return err
	}
	c.IsActive = active
	tx.charities[charityID] = c
	return nil
}

func (tx *memTx) SetFeeRateBps(_ context.Context, bps uint64) error {
	tx.feeRateBps = bps
	return nil
}

func (tx *memTx) commit() {
	s := tx.base
	for id, c := range tx.charities {
		s.charities[id] = c
	}
	for id, d := range tx.donations {
		s.donations[id] = d
	}
	for addr, ids := range tx.byCreator {
		s.byCreator[addr] = append(s.byCreator[addr], ids...)
	}
	for addr, ids := range tx.byDonor {
		s.byDonor[addr] = append(s.byDonor[addr], ids...)
	}
	for charityID, ids := range tx.byCharity {
		s.byCharity[charityID] = append(s.byCharity[charityID], ids...)
	}
	s.nextCharityID = tx.nextCharityID
	s.nextDonationID = tx.nextDonationID
	s.feeRateBps = tx.feeRateBps
}
