package handler

import (
	"github.com/ethereum/go-ethereum/common"

	"chariledger/internal/ledger"
	dErrors "chariledger/pkg/domain-errors"
)

type createCharityRequest struct {
	Wallet       string `json:"charity_wallet"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	TargetAmount uint64 `json:"target_amount"`
	DocReference string `json:"doc_reference"`
}

// toInput parses the wallet field; the remaining validation lives with
// the domain input type.
func (r createCharityRequest) toInput() (ledger.NewCharityInput, error) {
	if !common.IsHexAddress(r.Wallet) {
		return ledger.NewCharityInput{}, dErrors.New(dErrors.CodeInvalidArgument, "invalid charity wallet")
	}
	return ledger.NewCharityInput{
		Wallet:       common.HexToAddress(r.Wallet),
		Name:         r.Name,
		Description:  r.Description,
		Category:     r.Category,
		TargetAmount: r.TargetAmount,
		DocReference: r.DocReference,
	}, nil
}

type donateRequest struct {
	CharityID uint64 `json:"charity_id"`
	Amount    uint64 `json:"amount"`
	Message   string `json:"message"`
}

type verifyCharityRequest struct {
	Verified bool `json:"verified"`
}

type updateStatusRequest struct {
	IsActive bool `json:"is_active"`
}

type updateFeeRequest struct {
	FeeRateBps uint64 `json:"fee_rate_bps"`
}

type createCharityResponse struct {
	CharityID uint64 `json:"charity_id"`
}

type donateResponse struct {
	DonationID uint64 `json:"donation_id"`
}

type totalCharitiesResponse struct {
	Total uint64 `json:"total"`
}

type idsResponse struct {
	IDs []uint64 `json:"ids"`
}
