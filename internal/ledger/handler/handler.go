// Package handler is the thin HTTP layer over the ledger core. It
// delegates to the service without embedding business logic so
// transport concerns stay isolated.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"chariledger/internal/ledger"
	"chariledger/internal/platform/middleware"
	dErrors "chariledger/pkg/domain-errors"
	"chariledger/pkg/platform/httputil"
)

// Service defines the ledger operations the handler exposes.
type Service interface {
	CreateCharity(ctx context.Context, caller common.Address, in ledger.NewCharityInput) (uint64, error)
	VerifyCharity(ctx context.Context, caller common.Address, charityID uint64, verified bool) error
	UpdateCharityStatus(ctx context.Context, caller common.Address, charityID uint64, active bool) error
	Donate(ctx context.Context, caller common.Address, charityID uint64, amount uint64, message string) (uint64, error)
	UpdatePlatformFee(ctx context.Context, caller common.Address, bps uint64) error

	GetCharity(ctx context.Context, id uint64) (ledger.Charity, error)
	GetDonation(ctx context.Context, id uint64) (ledger.Donation, error)
	TotalCharities(ctx context.Context) (uint64, error)
	CharityProgress(ctx context.Context, id uint64) (ledger.Progress, error)
	UserCharities(ctx context.Context, creator common.Address) ([]uint64, error)
	UserDonations(ctx context.Context, donor common.Address) ([]uint64, error)
	CharityDonations(ctx context.Context, charityID uint64) ([]uint64, error)
	FeeRateBps(ctx context.Context) (uint64, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts all ledger routes. Mutating routes require a caller
// address; queries are anonymous.
func (h *Handler) Register(r chi.Router) {
	r.Get("/charities/count", h.handleTotalCharities)
	r.Get("/charities/{id}", h.handleGetCharity)
	r.Get("/charities/{id}/progress", h.handleCharityProgress)
	r.Get("/charities/{id}/donations", h.handleCharityDonations)
	r.Get("/donations/{id}", h.handleGetDonation)
	r.Get("/users/{address}/charities", h.handleUserCharities)
	r.Get("/users/{address}/donations", h.handleUserDonations)
	r.Get("/platform/fee", h.handleGetFee)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.CallerAddress(h.logger))
		r.Post("/charities", h.handleCreateCharity)
		r.Post("/charities/{id}/verify", h.handleVerifyCharity)
		r.Post("/charities/{id}/status", h.handleUpdateStatus)
		r.Post("/donations", h.handleDonate)
		r.Post("/platform/fee", h.handleUpdateFee)
	})
}

func (h *Handler) handleCreateCharity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	var req createCharityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}
	in, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	id, err := h.service.CreateCharity(ctx, caller, in)
	if err != nil {
		h.logFailure(ctx, "create charity failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, createCharityResponse{CharityID: id})
}

func (h *Handler) handleVerifyCharity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req verifyCharityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	if err := h.service.VerifyCharity(ctx, middleware.GetCaller(ctx), id, req.Verified); err != nil {
		h.logFailure(ctx, "verify charity failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	if err := h.service.UpdateCharityStatus(ctx, middleware.GetCaller(ctx), id, req.IsActive); err != nil {
		h.logFailure(ctx, "update charity status failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req donateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	id, err := h.service.Donate(ctx, middleware.GetCaller(ctx), req.CharityID, req.Amount, req.Message)
	if err != nil {
		h.logFailure(ctx, "donation rejected", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, donateResponse{DonationID: id})
}

func (h *Handler) handleUpdateFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	if err := h.service.UpdatePlatformFee(ctx, middleware.GetCaller(ctx), req.FeeRateBps); err != nil {
		h.logFailure(ctx, "update platform fee failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetCharity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetCharity(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.service.GetDonation(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleTotalCharities(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalCharities(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, totalCharitiesResponse{Total: total})
}

func (h *Handler) handleCharityProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	progress, err := h.service.CharityProgress(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, progress)
}

func (h *Handler) handleCharityDonations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ids, err := h.service.CharityDonations(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, idsResponse{IDs: ids})
}

func (h *Handler) handleUserCharities(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	ids, err := h.service.UserCharities(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, idsResponse{IDs: ids})
}

func (h *Handler) handleUserDonations(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	ids, err := h.service.UserDonations(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, idsResponse{IDs: ids})
}

func (h *Handler) handleGetFee(w http.ResponseWriter, r *http.Request) {
	rate, err := h.service.FeeRateBps(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updateFeeRequest{FeeRateBps: rate})
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid id"))
		return 0, false
	}
	return id, true
}

func pathAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid address"))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
