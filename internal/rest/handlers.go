// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeremyhahn/go-custody/pkg/audit"
	"github.com/jeremyhahn/go-custody/pkg/custody"
	"github.com/jeremyhahn/go-custody/pkg/health"
	"github.com/jeremyhahn/go-custody/pkg/metrics"
	"github.com/jeremyhahn/go-custody/pkg/registry"
	"github.com/jeremyhahn/go-custody/pkg/types"
	"github.com/jeremyhahn/go-custody/pkg/workflow"
)

// HandlerContext holds dependencies for REST handlers.
type HandlerContext struct {
	Version  string
	Registry *registry.Registry
	Custody  *custody.Manager
	Workflow *workflow.Workflow
	Audit    audit.Logger
	Health   *health.Checker
}

// NewHandlerContext creates a new handler context.
func NewHandlerContext(cfg *Config) *HandlerContext {
	return &HandlerContext{
		Version:  cfg.Version,
		Registry: cfg.Registry,
		Custody:  cfg.Custody,
		Workflow: cfg.Workflow,
		Audit:    cfg.Audit,
		Health:   cfg.Health,
	}
}

// HealthHandler reports server liveness.
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok", Version: h.Version}, http.StatusOK)
}

// LivenessHandler implements the Kubernetes liveness probe.
func (h *HandlerContext) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Health.Live(r.Context()), http.StatusOK)
}

// ReadinessHandler implements the Kubernetes readiness probe. Returns
// 503 when any registered check reports unhealthy.
func (h *HandlerContext) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	results := h.Health.Ready(r.Context())
	status := http.StatusOK
	for _, result := range results {
		if result.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, results, status)
}

// StartupHandler implements the Kubernetes startup probe. Returns 503
// until service initialization completes.
func (h *HandlerContext) StartupHandler(w http.ResponseWriter, r *http.Request) {
	result := h.Health.Startup(r.Context())
	status := http.StatusOK
	if result.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, result, status)
}

// RegisterPartyHandler creates a signing party.
func (h *HandlerContext) RegisterPartyHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterPartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}

	party, err := h.Registry.Register(req.DisplayName, types.PartyRole(req.Role), req.CommsPublicKey)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, party, http.StatusCreated)
}

// GetPartyHandler returns a party by id.
func (h *HandlerContext) GetPartyHandler(w http.ResponseWriter, r *http.Request) {
	party, err := h.Registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, party, http.StatusOK)
}

// ListPartiesHandler returns all enabled parties.
func (h *HandlerContext) ListPartiesHandler(w http.ResponseWriter, r *http.Request) {
	parties, err := h.Registry.ListEnabled()
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, parties, http.StatusOK)
}

// RevokePartyHandler disables a party.
func (h *HandlerContext) RevokePartyHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Revoke(chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateWalletHandler creates a custody wallet and runs distributed key
// generation.
func (h *HandlerContext) CreateWalletHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}

	wallet, err := h.Custody.CreateWallet(r.Context(), &custody.CreateWalletRequest{
		WalletID:    req.WalletID,
		OwnerUserID: req.OwnerUserID,
		ChainID:     req.ChainID,
		Type:        types.WalletType(req.Type),
		PartyIDs:    req.PartyIDs,
		Threshold:   req.Threshold,
		UnlockTime:  req.UnlockTime,
		Label:       req.Label,
		Description: req.Description,
		Config:      req.Config,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, wallet, http.StatusCreated)
}

// GetWalletHandler returns wallet status.
func (h *HandlerContext) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.Custody.GetWallet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, wallet, http.StatusOK)
}

// ListWalletsHandler returns wallets, optionally filtered by owner.
func (h *HandlerContext) ListWalletsHandler(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.Custody.ListWallets(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, WalletListResponse{Wallets: wallets, Count: len(wallets)}, http.StatusOK)
}

// RevokeWalletHandler permanently disables a wallet.
func (h *HandlerContext) RevokeWalletHandler(w http.ResponseWriter, r *http.Request) {
	var req RevokeWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}
	if req.Caller == "" {
		writeError(w, fmt.Errorf("%w: caller", ErrMissingField), http.StatusBadRequest)
		return
	}

	if err := h.Custody.RevokeWallet(r.Context(), chi.URLParam(r, "id"), req.Caller); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportAuditHandler exports a wallet's audit log. The export itself is
// recorded in the audit trail.
func (h *HandlerContext) ExportAuditHandler(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var opErr error
	defer func() { metrics.RecordOperation(metrics.OpExportAudit, started, opErr) }()

	walletID := chi.URLParam(r, "id")

	from, err := parseTimeParam(r, "from")
	if err != nil {
		opErr = err
		writeError(w, err, http.StatusBadRequest)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		opErr = err
		writeError(w, err, http.StatusBadRequest)
		return
	}

	caller := r.URL.Query().Get("caller")
	if caller == "" {
		caller = "anonymous"
	}
	entry := audit.Entry(walletID, caller, audit.ActionExportAudit, audit.ResourceAuditLog, walletID)
	if err := h.Audit.Append(r.Context(), entry); err != nil {
		opErr = err
		handleError(w, err)
		return
	}

	entries, err := h.Audit.QueryByWallet(r.Context(), walletID, from, to)
	if err != nil {
		opErr = err
		handleError(w, err)
		return
	}
	writeJSON(w, AuditExportResponse{
		WalletID: walletID,
		Entries:  entries,
		Count:    len(entries),
	}, http.StatusOK)
}

// ProposeTransactionHandler proposes an outbound transfer.
func (h *HandlerContext) ProposeTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req ProposeTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}

	tx, err := h.Workflow.Propose(r.Context(), &workflow.ProposeRequest{
		WalletID:    req.WalletID,
		ToAddress:   req.ToAddress,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		TTL:         time.Duration(req.TTLSeconds) * time.Second,
		Proposer:    req.Proposer,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, tx, http.StatusCreated)
}

// GetTransactionHandler returns transaction status, including the
// execution record once executed.
func (h *HandlerContext) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	tx, exec, err := h.Workflow.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, TransactionResponse{Transaction: tx, Executed: exec}, http.StatusOK)
}

// ListTransactionsHandler returns a wallet's transactions, newest first.
func (h *HandlerContext) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Workflow.ListByWallet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, txs, http.StatusOK)
}

// SubmitSignatureHandler records a party's partial signature.
func (h *HandlerContext) SubmitSignatureHandler(w http.ResponseWriter, r *http.Request) {
	var req SubmitSignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}
	if req.PartyID == "" {
		writeError(w, fmt.Errorf("%w: party_id", ErrMissingField), http.StatusBadRequest)
		return
	}

	tx, err := h.Workflow.SubmitSignature(r.Context(), chi.URLParam(r, "id"), &types.PartialSignature{
		PartyID:     req.PartyID,
		MessageHash: req.MessageHash,
		Signature:   req.Signature,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, tx, http.StatusOK)
}

// ExecuteTransactionHandler combines the collected signatures and
// finalizes the transaction.
func (h *HandlerContext) ExecuteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req ExecuteTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}

	exec, err := h.Workflow.Execute(r.Context(), chi.URLParam(r, "id"), req.Caller)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, exec, http.StatusOK)
}

// RejectTransactionHandler vetoes a pending transaction.
func (h *HandlerContext) RejectTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req RejectTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}

	if err := h.Workflow.Reject(r.Context(), chi.URLParam(r, "id"), req.Caller, req.Reason); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", ErrInvalidRequest, name)
	}
	return t, nil
}
