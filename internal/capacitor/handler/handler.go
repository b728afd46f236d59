package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"capacitor/pkg/platform/httputil"
	request "capacitor/pkg/platform/middleware/request"
	"capacitor/pkg/platform/sentinel"
)

const maxBodyBytes = 4 << 10

// Engine is the control-plane view of the ingestion engine.
type Engine interface {
	AddAccount(ctx context.Context, accountID string) (bool, error)
	Accounts() []string
}

// Handler serves the allowlist control plane.
type Handler struct {
	engine Engine
	logger *slog.Logger
}

func New(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Register mounts the control-plane routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/config/add_account", h.handleAddAccount)
	r.Get("/config/accounts", h.handleListAccounts)
}

type addAccountRequest struct {
	AccountID string `json:"account_id"`
}

type addAccountResponse struct {
	AccountID string `json:"account_id"`
	Added     bool   `json:"added"`
}

type listAccountsResponse struct {
	Accounts []string `json:"accounts"`
	Count    int      `json:"count"`
}

func (h *Handler) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req addAccountRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid add account request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, fmt.Errorf("invalid request body: %w", sentinel.ErrInvalidInput))
		return
	}
	if strings.TrimSpace(req.AccountID) == "" || strings.TrimSpace(req.AccountID) != req.AccountID {
		httputil.WriteError(w, fmt.Errorf("account_id must be non-empty without surrounding whitespace: %w", sentinel.ErrInvalidInput))
		return
	}

	added, err := h.engine.AddAccount(ctx, req.AccountID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to add account",
			"request_id", requestID,
			"account_id", req.AccountID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "add account handled",
		"request_id", requestID,
		"account_id", req.AccountID,
		"added", added,
	)
	httputil.WriteJSON(w, http.StatusOK, addAccountResponse{AccountID: req.AccountID, Added: added})
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.engine.Accounts()
	httputil.WriteJSON(w, http.StatusOK, listAccountsResponse{Accounts: accounts, Count: len(accounts)})
}
