// Package service implements the ledger core: charity creation,
// donations with deterministic fee computation, owner-gated
// administration and the query surface.
//
// Every mutating operation is transactional. Checks run first, all
// ledger effects are staged in a store transaction, and the outbound
// value transfer happens last inside the transaction boundary — a
// failed transfer rolls the whole operation back, and the write lock
// held for the duration means no caller can observe half-applied
// state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"chariledger/internal/ledger"
	"chariledger/internal/ledger/metrics"
	"chariledger/internal/ledger/ports"
	dErrors "chariledger/pkg/domain-errors"
	"chariledger/pkg/platform/sentinel"
)

// Config carries the immutable platform identities.
type Config struct {
	// Owner has exclusive administrative rights.
	Owner common.Address
	// FeeRecipient receives the fee portion of every donation.
	FeeRecipient common.Address
}

// Service is the ledger core. Construct it once and thread it through
// every call; there is no hidden process-wide state.
type Service struct {
	store        ports.Store
	owner        common.Address
	feeRecipient common.Address

	logger    *slog.Logger
	publisher ports.EventEmitter
	metrics   *metrics.Metrics
	funds     ports.FundMover
	now       func() time.Time

	// mu serializes mutating operations end to end: precondition
	// checks, state mutation and event emission. Queries go straight
	// to the store's read paths.
	mu sync.Mutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher ports.EventEmitter) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithFundMover(funds ports.FundMover) Option {
	return func(s *Service) { s.funds = funds }
}

// WithClock overrides the timestamp source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New validates the platform configuration and builds the service.
func New(store ports.Store, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("owner address is required")
	}
	if cfg.FeeRecipient == (common.Address{}) {
		return nil, fmt.Errorf("fee recipient address is required")
	}

	svc := &Service{
		store:        store,
		owner:        cfg.Owner,
		feeRecipient: cfg.FeeRecipient,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateCharity records a new charity and returns its id. Any caller
// may create; verification is a separate owner-gated step.
func (s *Service) CreateCharity(ctx context.Context, caller common.Address, in ledger.NewCharityInput) (uint64, error) {
	if caller == (common.Address{}) {
		return 0, dErrors.New(dErrors.CodeInvalidArgument, "caller address is required")
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	charity := ledger.Charity{
		Wallet:       in.Wallet,
		Creator:      caller,
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		TargetAmount: in.TargetAmount,
		CreatedAt:    s.now(),
		IsActive:     true,
		IsVerified:   false,
		DocReference: in.DocReference,
	}

	var id uint64
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		id, err = tx.CreateCharity(ctx, charity)
		return err
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create charity")
	}

	s.logger.InfoContext(ctx, "charity created",
		"charity_id", id,
		"creator", caller.Hex(),
		"category", in.Category,
	)
	if s.metrics != nil {
		s.metrics.IncrementCharitiesCreated()
	}
	s.emit(ctx, ledger.CharityCreated{
		CharityID:    id,
		Creator:      caller,
		Wallet:       in.Wallet,
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
	})
	return id, nil
}

// VerifyCharity sets the verification flag. Owner only; idempotent
// re-sets are legal and still emit the notification.
func (s *Service) VerifyCharity(ctx context.Context, caller common.Address, charityID uint64, verified bool) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.SetVerified(ctx, charityID, verified)
	})
	if err != nil {
		return translateCharityErr(err, "failed to verify charity")
	}

	s.logger.InfoContext(ctx, "charity verification updated",
		"charity_id", charityID,
		"verified", verified,
	)
	s.emit(ctx, ledger.CharityVerified{CharityID: charityID, Verified: verified})
	return nil
}

// UpdateCharityStatus toggles the activity flag. Owner only.
func (s *Service) UpdateCharityStatus(ctx context.Context, caller common.Address, charityID uint64, active bool) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.SetActive(ctx, charityID, active)
	})
	if err != nil {
		return translateCharityErr(err, "failed to update charity status")
	}

	s.logger.InfoContext(ctx, "charity status updated",
		"charity_id", charityID,
		"is_active", active,
	)
	s.emit(ctx, ledger.CharityStatusUpdated{CharityID: charityID, IsActive: active})
	return nil
}

// Donate accepts a donation against a verified, active charity. The
// fee portion goes to the fee recipient and the net remainder is
// credited to the charity, all-or-nothing.
func (s *Service) Donate(ctx context.Context, caller common.Address, charityID uint64, amount uint64, message string) (uint64, error) {
	if caller == (common.Address{}) {
		return 0, dErrors.New(dErrors.CodeInvalidArgument, "caller address is required")
	}
	if amount == 0 {
		s.countRejection("invalid_argument")
		return 0, dErrors.New(dErrors.CodeInvalidArgument, "donation amount must be greater than zero")
	}
	if amount > ledger.MaxAmount {
		s.countRejection("invalid_argument")
		return 0, dErrors.New(dErrors.CodeInvalidArgument, "donation amount out of range")
	}
	if len(message) > ledger.MaxMessageLen {
		s.countRejection("invalid_argument")
		return 0, dErrors.New(dErrors.CodeInvalidArgument, "donation message too long")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		donationID uint64
		fee, net   uint64
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		charity, err := tx.GetCharity(ctx, charityID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "charity not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load charity")
		}
		if !charity.IsVerified {
			return dErrors.New(dErrors.CodeNotVerified, "charity not verified")
		}
		if !charity.IsActive {
			return dErrors.New(dErrors.CodeInactive, "charity not active")
		}

		rate, err := tx.FeeRateBps(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read fee rate")
		}
		// Re-validate the stored rate before any arithmetic. A rate
		// above the cap would make fee exceed amount and underflow net.
		if rate > ledger.MaxFeeRateBps {
			return dErrors.New(dErrors.CodeInternal, "stored fee rate exceeds cap")
		}
		fee = FeeFor(amount, rate)
		net = amount - fee

		if charity.RaisedAmount > ledger.MaxAmount-net {
			return dErrors.New(dErrors.CodeInvalidArgument, "donation would overflow raised amount")
		}

		donationID, err = tx.InsertDonation(ctx, ledger.Donation{
			CharityID: charityID,
			Donor:     caller,
			Amount:    net,
			Timestamp: s.now(),
			Message:   message,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation")
		}

		// Interactions last: every ledger effect above is already
		// staged, and a transfer failure unwinds them all.
		if s.funds != nil {
			transfers := make([]ports.Transfer, 0, 2)
			if fee > 0 {
				transfers = append(transfers, ports.Transfer{To: s.feeRecipient, Amount: fee})
			}
			transfers = append(transfers, ports.Transfer{To: charity.Wallet, Amount: net})
			if err := s.funds.Move(ctx, caller, transfers...); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to move donation funds")
			}
		}
		return nil
	})
	if err != nil {
		s.countRejection(string(dErrors.CodeOf(err)))
		return 0, err
	}

	s.logger.InfoContext(ctx, "donation made",
		"donation_id", donationID,
		"charity_id", charityID,
		"donor", caller.Hex(),
		"net", net,
		"fee", fee,
	)
	if s.metrics != nil {
		s.metrics.ObserveDonation(net, fee)
	}
	s.emit(ctx, ledger.DonationMade{
		DonationID: donationID,
		CharityID:  charityID,
		Donor:      caller,
		Amount:     net,
		Message:    message,
	})
	return donationID, nil
}

// UpdatePlatformFee sets the fee rate in basis points. Owner only,
// capped at 10%, prospective only.
func (s *Service) UpdatePlatformFee(ctx context.Context, caller common.Address, bps uint64) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if bps > ledger.MaxFeeRateBps {
		return dErrors.New(dErrors.CodeInvalidArgument, "fee rate cannot exceed 10%")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.SetFeeRateBps(ctx, bps)
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update platform fee")
	}

	s.logger.InfoContext(ctx, "platform fee updated", "fee_rate_bps", bps)
	s.emit(ctx, ledger.PlatformFeeUpdated{FeeRateBps: bps})
	return nil
}

func (s *Service) requireOwner(caller common.Address) error {
	if caller != s.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

func (s *Service) countRejection(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRejectedDonations(reason)
	}
}

// emit delivers a notification for a committed mutation. Indexers are
// eventually consistent consumers, so a delivery failure is logged and
// never unwinds the commit.
func (s *Service) emit(ctx context.Context, ev ledger.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit ledger event",
			"event", ev.EventName(),
			"error", err,
		)
	}
}

func translateCharityErr(err error, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "charity not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}
