package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"chariledger/internal/ledger/publisher"
	"chariledger/internal/ledger/service"
	memoryStore "chariledger/internal/ledger/store/memory"
	"chariledger/internal/platform/middleware"
)

const (
	ownerHex   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	creatorHex = "0x1111111111111111111111111111111111111111"
	donorHex   = "0x2222222222222222222222222222222222222222"
	walletHex  = "0x3333333333333333333333333333333333333333"
)

func TestCallerAddressRequired(t *testing.T) {
	router := newLedgerRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/charities", bytes.NewReader(charityBody(t)))
	req.Header.Set("Content-Type", "application/json")
	// No caller address header set
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when caller address missing, got %d", rec.Code)
	}
}

func TestCreateVerifyDonateViaHandlers(t *testing.T) {
	router := newLedgerRouter(t)

	// Create a charity.
	rec := doJSON(t, router, http.MethodPost, "/charities", creatorHex, charityBody(t))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating charity, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		CharityID uint64 `json:"charity_id"`
	}
	decode(t, rec.Body, &created)
	if created.CharityID != 1 {
		t.Fatalf("expected charity_id 1, got %d", created.CharityID)
	}

	// Donating before verification is rejected with the gate code.
	donation, _ := json.Marshal(map[string]any{"charity_id": 1, "amount": 1_000_000, "message": "hi"})
	rec = doJSON(t, router, http.MethodPost, "/donations", donorHex, donation)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for unverified charity, got %d", rec.Code)
	}
	var gate struct {
		Error string `json:"error"`
	}
	decode(t, rec.Body, &gate)
	if gate.Error != "not_verified" {
		t.Fatalf("expected not_verified, got %q", gate.Error)
	}

	// Verification by a non-owner is forbidden.
	verify, _ := json.Marshal(map[string]bool{"verified": true})
	rec = doJSON(t, router, http.MethodPost, "/charities/1/verify", creatorHex, verify)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner verify, got %d", rec.Code)
	}

	// The owner verifies; the donation now succeeds.
	rec = doJSON(t, router, http.MethodPost, "/charities/1/verify", ownerHex, verify)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 verifying charity, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/donations", donorHex, donation)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 donating, got %d: %s", rec.Code, rec.Body.String())
	}
	var made struct {
		DonationID uint64 `json:"donation_id"`
	}
	decode(t, rec.Body, &made)
	if made.DonationID != 1 {
		t.Fatalf("expected donation_id 1, got %d", made.DonationID)
	}

	// The stored donation carries the net amount at the default 250 bps.
	rec = doGet(t, router, "/donations/1")
	var stored struct {
		Amount uint64 `json:"amount"`
	}
	decode(t, rec.Body, &stored)
	if stored.Amount != 975_000 {
		t.Fatalf("expected net amount 975000, got %d", stored.Amount)
	}

	// Progress reflects the credited net.
	rec = doGet(t, router, "/charities/1/progress")
	var progress struct {
		Raised     uint64 `json:"raised"`
		Target     uint64 `json:"target"`
		Percentage uint64 `json:"percentage"`
	}
	decode(t, rec.Body, &progress)
	if progress.Raised != 975_000 || progress.Percentage != 9 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	// Index queries.
	rec = doGet(t, router, "/users/"+donorHex+"/donations")
	var ids struct {
		IDs []uint64 `json:"ids"`
	}
	decode(t, rec.Body, &ids)
	if len(ids.IDs) != 1 || ids.IDs[0] != 1 {
		t.Fatalf("expected donor donations [1], got %v", ids.IDs)
	}

	rec = doGet(t, router, "/charities/count")
	var total struct {
		Total uint64 `json:"total"`
	}
	decode(t, rec.Body, &total)
	if total.Total != 1 {
		t.Fatalf("expected total 1, got %d", total.Total)
	}
}

func TestFeeUpdateOverCapRejected(t *testing.T) {
	router := newLedgerRouter(t)

	body, _ := json.Marshal(map[string]uint64{"fee_rate_bps": 1001})
	rec := doJSON(t, router, http.MethodPost, "/platform/fee", ownerHex, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for fee over cap, got %d", rec.Code)
	}

	rec = doGet(t, router, "/platform/fee")
	var fee struct {
		FeeRateBps uint64 `json:"fee_rate_bps"`
	}
	decode(t, rec.Body, &fee)
	if fee.FeeRateBps != 250 {
		t.Fatalf("expected prior rate 250, got %d", fee.FeeRateBps)
	}
}

func TestGetUnknownCharity(t *testing.T) {
	router := newLedgerRouter(t)

	rec := doGet(t, router, "/charities/99")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown charity, got %d", rec.Code)
	}
}

func TestBadAddressInPath(t *testing.T) {
	router := newLedgerRouter(t)

	rec := doGet(t, router, "/users/not-an-address/donations")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed address, got %d", rec.Code)
	}
}

func newLedgerRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memoryStore.New(250)
	pub := publisher.New(nil, publisher.WithLogger(logger))

	svc, err := service.New(store, service.Config{
		Owner:        addr(ownerHex),
		FeeRecipient: addr("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
	}, service.WithLogger(logger), service.WithPublisher(pub))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	h.Register(r)
	return r
}

func charityBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"charity_wallet": walletHex,
		"name":           "Clean Water",
		"description":    "Wells for rural communities",
		"category":       "Healthcare",
		"target_amount":  10_000_000,
		"doc_reference":  "QmTestHash",
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func doJSON(t *testing.T, router http.Handler, method, path, caller string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CallerHeader, caller)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func addr(hex string) common.Address {
	return common.HexToAddress(hex)
}

func decode(t *testing.T, body io.Reader, v any) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
