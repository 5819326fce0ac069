package ledger

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Event is a notification emitted after a committed mutation. External
// indexers (the read backend, UI) consume these; they are outputs, not
// participants — a failed delivery never unwinds the mutation.
type Event interface {
	EventName() string
}

// Envelope is the wire form sinks serialize.
type Envelope struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// CharityCreated is emitted once per successful createCharity.
type CharityCreated struct {
	CharityID    uint64         `json:"charity_id"`
	Creator      common.Address `json:"creator"`
	Wallet       common.Address `json:"charity_wallet"`
	Name         string         `json:"name"`
	TargetAmount uint64         `json:"target_amount"`
}

func (CharityCreated) EventName() string { return "CharityCreated" }

// CharityVerified is emitted on every verifyCharity call, including
// idempotent re-sets of the same value.
type CharityVerified struct {
	CharityID uint64 `json:"charity_id"`
	Verified  bool   `json:"verified"`
}

func (CharityVerified) EventName() string { return "CharityVerified" }

// CharityStatusUpdated is emitted on updateCharityStatus, for parity
// with the verification event.
type CharityStatusUpdated struct {
	CharityID uint64 `json:"charity_id"`
	IsActive  bool   `json:"is_active"`
}

func (CharityStatusUpdated) EventName() string { return "CharityStatusUpdated" }

// DonationMade carries the net amount credited, matching the stored
// donation record.
type DonationMade struct {
	DonationID uint64         `json:"donation_id"`
	CharityID  uint64         `json:"charity_id"`
	Donor      common.Address `json:"donor"`
	Amount     uint64         `json:"amount"`
	Message    string         `json:"message,omitempty"`
}

func (DonationMade) EventName() string { return "DonationMade" }

// PlatformFeeUpdated is emitted when the owner changes the fee rate.
// The new rate applies prospectively only.
type PlatformFeeUpdated struct {
	FeeRateBps uint64 `json:"fee_rate_bps"`
}

func (PlatformFeeUpdated) EventName() string { return "PlatformFeeUpdated" }
