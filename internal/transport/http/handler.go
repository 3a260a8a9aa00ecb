// Package httptransport exposes the ledger to sibling plugins over JSON.
// Handlers stay thin: decode, delegate, encode. Business conditions travel
// as status-coded results in the body, not as HTTP errors.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pointsd/internal/auditlog"
	"pointsd/internal/ledger/models"
	"pointsd/internal/namecache"
	dErrors "pointsd/pkg/domain-errors"
)

// LedgerService is the ledger surface consumed by the transport.
type LedgerService interface {
	Get(ctx context.Context, userID string) (int64, error)
	GetDisplayName(ctx context.Context, userID string) (string, error)
	Set(ctx context.Context, userID, transactionID string, balance int64) models.Result
	Add(ctx context.Context, userID, transactionID string, amount int64) models.Result
	Reduce(ctx context.Context, userID, transactionID string, amount int64) models.Result
	UpdateDisplayName(ctx context.Context, userID, name string) models.Result
	TopN(ctx context.Context, n int) ([]models.TopEntry, error)
	GenerateTransactionID() string
}

// AuditLister reads back persisted audit entries for operators.
type AuditLister interface {
	List(ctx context.Context, limit int) ([]auditlog.Entry, error)
}

type Handler struct {
	ledger LedgerService
	audit  AuditLister
	names  namecache.Cache
	logger *slog.Logger
}

func NewHandler(ledger LedgerService, audit AuditLister, names namecache.Cache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ledger: ledger,
		audit:  audit,
		names:  names,
		logger: logger,
	}
}

// Register mounts the plugin-facing endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/points/{userID}", h.handleGet)
	r.Get("/v1/points/{userID}/name", h.handleGetName)
	r.Put("/v1/points/{userID}", h.handleSet)
	r.Post("/v1/points/{userID}/add", h.handleAdd)
	r.Post("/v1/points/{userID}/reduce", h.handleReduce)
	r.Put("/v1/points/{userID}/name", h.handleUpdateName)
	r.Get("/v1/leaderboard", h.handleLeaderboard)
	r.Get("/v1/audit/entries", h.handleAuditEntries)
	r.Post("/v1/transactions/token", h.handleToken)
}

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

type balanceData struct {
	UserID  string `json:"userId"`
	Balance int64  `json:"balance"`
}

type nameData struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type mutateRequest struct {
	Balance       *int64 `json:"balance,omitempty"`
	Amount        int64  `json:"amount"`
	TransactionID string `json:"transactionId"`
	DisplayName   string `json:"displayName,omitempty"`
}

type nameRequest struct {
	DisplayName string `json:"displayName"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	balance, err := h.ledger.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Code: models.StatusOK,
		Msg:  "ok",
		Data: balanceData{UserID: userID, Balance: balance},
	})
}

func (h *Handler) handleGetName(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	name, err := h.ledger.GetDisplayName(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Code: models.StatusOK,
		Msg:  "ok",
		Data: nameData{UserID: userID, DisplayName: name},
	})
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	req, ok := decode[mutateRequest](w, r)
	if !ok {
		return
	}
	if req.Balance == nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "balance is required"))
		return
	}

	result := h.ledger.Set(r.Context(), userID, req.TransactionID, *req.Balance)
	h.captureName(r.Context(), userID, req.DisplayName)
	writeResult(w, result)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	req, ok := decode[mutateRequest](w, r)
	if !ok {
		return
	}

	result := h.ledger.Add(r.Context(), userID, req.TransactionID, req.Amount)
	h.captureName(r.Context(), userID, req.DisplayName)
	writeResult(w, result)
}

func (h *Handler) handleReduce(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	req, ok := decode[mutateRequest](w, r)
	if !ok {
		return
	}

	result := h.ledger.Reduce(r.Context(), userID, req.TransactionID, req.Amount)
	h.captureName(r.Context(), userID, req.DisplayName)
	writeResult(w, result)
}

func (h *Handler) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	req, ok := decode[nameRequest](w, r)
	if !ok {
		return
	}
	if req.DisplayName == "" {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "displayName is required"))
		return
	}

	result := h.ledger.UpdateDisplayName(r.Context(), userID, req.DisplayName)
	if result.Code == models.StatusOK && h.names != nil {
		h.names.Set(r.Context(), userID, req.DisplayName)
	}
	writeResult(w, result)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "n must be an integer"))
			return
		}
		n = parsed
	}

	entries, err := h.ledger.TopN(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.TopEntry{}
	}
	writeJSON(w, http.StatusOK, envelope{Code: models.StatusOK, Msg: "ok", Data: entries})
}

type auditEntryDTO struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"userId"`
	Operation     string    `json:"operationType"`
	Amount        *int64    `json:"operationAmount,omitempty"`
	PluginName    string    `json:"pluginName"`
	Comment       string    `json:"comment,omitempty"`
	StatusCode    int       `json:"statusCode"`
	PreviousValue *int64    `json:"previousValue,omitempty"`
	NewValue      *int64    `json:"newValue,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func (h *Handler) handleAuditEntries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.audit.List(r.Context(), limit)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list audit entries"))
		return
	}

	dtos := make([]auditEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, auditEntryDTO{
			ID:            e.ID,
			UserID:        e.UserID,
			Operation:     e.Operation,
			Amount:        e.Amount,
			PluginName:    e.PluginName,
			Comment:       e.Comment,
			StatusCode:    e.StatusCode,
			PreviousValue: e.PreviousValue,
			NewValue:      e.NewValue,
			TransactionID: e.TransactionID,
			Timestamp:     e.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, envelope{Code: models.StatusOK, Msg: "ok", Data: dtos})
}

func (h *Handler) handleToken(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		Code: models.StatusOK,
		Msg:  "ok",
		Data: map[string]string{"transactionId": h.ledger.GenerateTransactionID()},
	})
}

// captureName opportunistically records the caller-supplied display name.
// It runs after the ledger mutation so it only ever decorates records the
// mutation left behind, never seeds one. The cache keeps repeated requests
// from writing the same name over and over; capture failures are not the
// caller's problem.
func (h *Handler) captureName(ctx context.Context, userID, name string) {
	if name == "" {
		return
	}
	if h.names != nil {
		if cached, ok := h.names.Get(ctx, userID); ok && cached == name {
			return
		}
	}
	switch result := h.ledger.UpdateDisplayName(ctx, userID, name); result.Code {
	case models.StatusOK:
		if h.names != nil {
			h.names.Set(ctx, userID, name)
		}
	case models.StatusNoOp:
		// No record to attach the name to; nothing to cache.
	default:
		h.logger.WarnContext(ctx, "display name capture failed",
			"user_id", userID,
			"code", result.Code,
		)
	}
}

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return req, false
	}
	return req, true
}

// writeResult maps application result codes onto the transport. Business
// outcomes (no-op, insufficient funds, invalid input) ride in the body of
// a 200 so callers branch on one code space; only store failures become
// HTTP errors.
func writeResult(w http.ResponseWriter, result models.Result) {
	status := http.StatusOK
	if result.Code == models.StatusStoreFailure {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}
