// Package ports declares the interfaces the ledger core depends on.
// Stores, event sinks and fund movement are interface-driven so the
// service stays testable and persistence can be swapped without
// touching business code.
package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"chariledger/internal/ledger"
)

// Store is the persistence contract. Reads run against the most
// recently committed state; mutations are only legal inside WithinTx
// and commit atomically — if fn returns an error every staged mutation
// is discarded, including allocated ids.
type Store interface {
	Reader

	// WithinTx runs fn against a transaction. Commit happens iff fn
	// returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Reader is the query surface. Id listings are ordered by creation and
// empty (never nil-error) when the subject has no entries; lookups of
// nonexistent ids return sentinel.ErrNotFound.
type Reader interface {
	GetCharity(ctx context.Context, id uint64) (ledger.Charity, error)
	GetDonation(ctx context.Context, id uint64) (ledger.Donation, error)
	TotalCharities(ctx context.Context) (uint64, error)
	CharitiesByCreator(ctx context.Context, creator common.Address) ([]uint64, error)
	DonationsByDonor(ctx context.Context, donor common.Address) ([]uint64, error)
	DonationsByCharity(ctx context.Context, charityID uint64) ([]uint64, error)
	FeeRateBps(ctx context.Context) (uint64, error)
}

// Tx is the mutation surface of one transaction. Sequential id
// allocation happens inside the transaction, so a rollback leaves the
// next id unchanged and sequences stay gap-free.
type Tx interface {
	Reader

	// CreateCharity allocates the next charity id, stores the record,
	// appends the creator index and bumps the total counter.
	CreateCharity(ctx context.Context, c ledger.Charity) (uint64, error)
	// InsertDonation allocates the next donation id, stores the record,
	// adds the net amount to the charity's raised total and appends the
	// donor and charity indices.
	InsertDonation(ctx context.Context, d ledger.Donation) (uint64, error)
	SetVerified(ctx context.Context, charityID uint64, verified bool) error
	SetActive(ctx context.Context, charityID uint64, active bool) error
	SetFeeRateBps(ctx context.Context, bps uint64) error
}

// EventEmitter accepts typed ledger notifications for delivery to
// external indexers.
type EventEmitter interface {
	Emit(ctx context.Context, ev ledger.Event) error
}

// EventSink receives serialized ledger notifications.
type EventSink interface {
	Publish(ctx context.Context, env ledger.Envelope) error
}

// Transfer is one leg of an outbound value movement.
type Transfer struct {
	To     common.Address
	Amount uint64
}

// FundMover moves value out of the ledger's custody. Implementations
// must apply all transfers or none; a returned error aborts the
// donation that requested the movement.
type FundMover interface {
	Move(ctx context.Context, from common.Address, transfers ...Transfer) error
}
