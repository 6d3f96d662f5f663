package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"account_ledger/internal/domain"
	"account_ledger/internal/ledger"
	"account_ledger/internal/repository"
	"account_ledger/pkg/crypto"
	"account_ledger/pkg/metrics"
	"account_ledger/pkg/validator"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type APIHandler struct {
	ledger    *ledger.Service
	metrics   *metrics.MetricsCollector
	signer    *crypto.Signer
	validator *validator.RequestValidator
	logger    *slog.Logger
	now       func() time.Time
}

func NewAPIHandler(
	ledger *ledger.Service,
	metrics *metrics.MetricsCollector,
	signer *crypto.Signer,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		ledger:    ledger,
		metrics:   metrics,
		signer:    signer,
		validator: validator.NewRequestValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

type OpenAccountRequest struct {
	Holder         string          `json:"holder"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	RequestID      string          `json:"request_id,omitempty"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ToAccountID string          `json:"to_account_id"`
}

type InterestRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

type AccountResponse struct {
	ID      string          `json:"id"`
	Holder  string          `json:"holder"`
	Balance decimal.Decimal `json:"balance"`
	Summary string          `json:"summary"`
}

type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type HistoryResponse struct {
	AccountID string   `json:"account_id"`
	History   []string `json:"history"`
}

type StatementResponse struct {
	AccountID string   `json:"account_id"`
	Holder    string   `json:"holder"`
	Balance   string   `json:"balance"`
	History   []string `json:"history"`
	IssuedAt  int64    `json:"issued_at"`
	Signature string   `json:"signature"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *APIHandler) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if err := h.validator.ValidateHolder(req.Holder); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	if err := validator.ValidateAmount(req.InitialBalance); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_AMOUNT")
		return
	}
	if err := h.validator.ClaimRequestID(req.RequestID); err != nil {
		h.sendError(w, err.Error(), http.StatusConflict, "DUPLICATE_REQUEST")
		return
	}

	account, err := h.ledger.OpenAccount(r.Context(), req.Holder, req.InitialBalance)
	h.metrics.RecordOperation(string(ledger.OpOpen), time.Since(start), resultLabel(err))
	if err != nil {
		h.validator.ReleaseRequestID(req.RequestID)
		h.sendLedgerError(w, err)
		return
	}

	h.metrics.RecordAccountOpened()
	h.trackBalance(account)
	h.sendJSON(w, toAccountResponse(account), http.StatusCreated)
}

// ListAccountsHandler lists every account, or only those of ?holder=.
func (h *APIHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		accounts []*domain.Account
		err      error
	)
	if holder := r.URL.Query().Get("holder"); holder != "" {
		accounts, err = h.ledger.AccountsByHolder(r.Context(), holder)
	} else {
		accounts, err = h.ledger.Accounts(r.Context())
	}
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	response := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		response = append(response, toAccountResponse(account))
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}
	h.sendJSON(w, toAccountResponse(account), http.StatusOK)
}

func (h *APIHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if err := h.validator.ValidateAccountID(accountID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_ACCOUNT")
		return
	}

	balance, err := h.ledger.Balance(r.Context(), accountID)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendJSON(w, BalanceResponse{AccountID: accountID, Balance: balance}, http.StatusOK)
}

func (h *APIHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, ledger.OpDeposit, h.ledger.Deposit)
}

func (h *APIHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, ledger.OpWithdraw, h.ledger.Withdraw)
}

func (h *APIHandler) TransferHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	fromID := chi.URLParam(r, "id")

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if err := h.validator.ValidateTransfer(fromID, req.ToAccountID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_ACCOUNT")
		return
	}
	if err := validator.ValidateAmount(req.Amount); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_AMOUNT")
		return
	}

	balance, err := h.ledger.Transfer(r.Context(), fromID, req.ToAccountID, req.Amount)
	h.metrics.RecordOperation(string(ledger.OpTransfer), time.Since(start), resultLabel(err))
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	for _, id := range []string{fromID, req.ToAccountID} {
		if account, err := h.ledger.Account(r.Context(), id); err == nil {
			h.trackBalance(account)
		}
	}
	h.sendJSON(w, BalanceResponse{AccountID: fromID, Balance: balance}, http.StatusOK)
}

func (h *APIHandler) InterestHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	accountID := chi.URLParam(r, "id")

	var req InterestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if err := h.validator.ValidateAccountID(accountID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_ACCOUNT")
		return
	}
	if err := validator.ValidateAmount(req.Rate); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_AMOUNT")
		return
	}

	balance, err := h.ledger.ApplyInterest(r.Context(), accountID, req.Rate)
	h.metrics.RecordOperation(string(ledger.OpInterest), time.Since(start), resultLabel(err))
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	if account, err := h.ledger.Account(r.Context(), accountID); err == nil {
		h.trackBalance(account)
	}
	h.sendJSON(w, BalanceResponse{AccountID: accountID, Balance: balance}, http.StatusOK)
}

func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if err := h.validator.ValidateAccountID(accountID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_ACCOUNT")
		return
	}

	history, err := h.ledger.History(r.Context(), accountID)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendJSON(w, HistoryResponse{AccountID: accountID, History: history}, http.StatusOK)
}

func (h *APIHandler) StatementHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}

	snap := account.Snapshot()
	history := make([]string, len(snap.Entries))
	for i, e := range snap.Entries {
		history[i] = e.String()
	}
	balance := snap.Balance.StringFixed(2)
	issuedAt := h.now().Unix()

	h.sendJSON(w, StatementResponse{
		AccountID: snap.ID,
		Holder:    snap.Holder,
		Balance:   balance,
		History:   history,
		IssuedAt:  issuedAt,
		Signature: h.signer.SignStatement(snap.ID, snap.Holder, balance, history, issuedAt),
	}, http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC(),
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) applyAmount(
	w http.ResponseWriter,
	r *http.Request,
	op ledger.Operation,
	apply func(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error),
) {
	start := time.Now()
	accountID := chi.URLParam(r, "id")

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if err := h.validator.ValidateAccountID(accountID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_ACCOUNT")
		return
	}
	if err := validator.ValidateAmount(req.Amount); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_AMOUNT")
		return
	}

	balance, err := apply(r.Context(), accountID, req.Amount)
	h.metrics.RecordOperation(string(op), time.Since(start), resultLabel(err))
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	if account, err := h.ledger.Account(r.Context(), accountID); err == nil {
		h.trackBalance(account)
	}
	h.sendJSON(w, BalanceResponse{AccountID: accountID, Balance: balance}, http.StatusOK)
}

func (h *APIHandler) lookupAccount(w http.ResponseWriter, r *http.Request) (*domain.Account, bool) {
	accountID := chi.URLParam(r, "id")
	if err := h.validator.ValidateAccountID(accountID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_ACCOUNT")
		return nil, false
	}

	account, err := h.ledger.Account(r.Context(), accountID)
	if err != nil {
		h.sendLedgerError(w, err)
		return nil, false
	}
	return account, true
}

func (h *APIHandler) trackBalance(account *domain.Account) {
	h.metrics.UpdateAccountBalance(account.ID(), account.Holder(), account.Balance().InexactFloat64())
}

func (h *APIHandler) sendLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_AMOUNT")
	case errors.Is(err, domain.ErrInsufficientFunds):
		h.sendError(w, err.Error(), http.StatusConflict, "INSUFFICIENT_FUNDS")
	case errors.Is(err, repository.ErrNotFound):
		h.sendError(w, err.Error(), http.StatusNotFound, "NOT_FOUND")
	default:
		h.logger.Error("Ledger operation failed", slog.String("error", err.Error()))
		h.sendError(w, "Internal error", http.StatusInternalServerError, "SERVER_ERROR")
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func toAccountResponse(account *domain.Account) AccountResponse {
	snap := account.Snapshot()
	return AccountResponse{
		ID:      snap.ID,
		Holder:  snap.Holder,
		Balance: snap.Balance,
		Summary: snap.String(),
	}
}

// resultLabel maps an operation error to the metrics result label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
