// Package ledger defines the records the charity/donation ledger is
// authoritative for, together with their creation-time validation.
package ledger

import (
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"

	dErrors "chariledger/pkg/domain-errors"
)

// MaxFeeRateBps caps the platform fee at 10%.
const MaxFeeRateBps = 1000

// FeeRateDenominator is the basis-point scale fee math divides by.
const FeeRateDenominator = 10000

// MaxMessageLen bounds the optional donation message, in bytes.
const MaxMessageLen = 512

// MaxAmount bounds every monetary value so sums stay representable in
// signed 64-bit storage columns.
const MaxAmount = math.MaxInt64

// Categories is the platform's charity category catalog.
var Categories = []string{
	"Education",
	"Healthcare",
	"Environment",
	"Poverty",
	"Disaster Relief",
	"Animal Welfare",
	"Human Rights",
	"Other",
}

// ValidCategory reports whether category is in the catalog.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Charity is the authoritative record of a registered charity. Only
// RaisedAmount, IsActive and IsVerified change after creation, each
// under a specific operation.
type Charity struct {
	ID           uint64         `json:"id"`
	Wallet       common.Address `json:"charity_wallet"`
	Creator      common.Address `json:"creator"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	TargetAmount uint64         `json:"target_amount"`
	RaisedAmount uint64         `json:"raised_amount"`
	CreatedAt    time.Time      `json:"created_at"`
	IsActive     bool           `json:"is_active"`
	IsVerified   bool           `json:"is_verified"`
	DocReference string         `json:"doc_reference"`
}

// Donation records a single accepted donation. Amount is the net value
// credited to the charity after the platform fee was deducted.
type Donation struct {
	ID        uint64         `json:"id"`
	CharityID uint64         `json:"charity_id"`
	Donor     common.Address `json:"donor"`
	Amount    uint64         `json:"amount"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message,omitempty"`
}

// Progress is the funding state of a charity. Percentage uses the same
// integer floor rule as fee computation.
type Progress struct {
	Raised     uint64 `json:"raised"`
	Target     uint64 `json:"target"`
	Percentage uint64 `json:"percentage"`
}

// NewCharityInput carries the caller-supplied fields of createCharity.
type NewCharityInput struct {
	Wallet       common.Address
	Name         string
	Description  string
	Category     string
	TargetAmount uint64
	DocReference string
}

// Validate enforces the creation preconditions. No partial charity is
// recorded when any of them fails.
func (in NewCharityInput) Validate() error {
	if in.Wallet == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidArgument, "invalid charity wallet")
	}
	if in.Name == "" {
		return dErrors.New(dErrors.CodeInvalidArgument, "charity name is required")
	}
	if in.Description == "" {
		return dErrors.New(dErrors.CodeInvalidArgument, "charity description is required")
	}
	if in.Category == "" {
		return dErrors.New(dErrors.CodeInvalidArgument, "charity category is required")
	}
	if !ValidCategory(in.Category) {
		return dErrors.New(dErrors.CodeInvalidArgument, "unknown charity category")
	}
	if in.TargetAmount == 0 {
		return dErrors.New(dErrors.CodeInvalidArgument, "target amount must be greater than zero")
	}
	if in.TargetAmount > MaxAmount {
		return dErrors.New(dErrors.CodeInvalidArgument, "target amount out of range")
	}
	return nil
}
