// Package service implements the ledger's public operations. Every call,
// success or failure, emits exactly one audit event before returning;
// audit failures never surface to the caller.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"pointsd/internal/auditlog"
	"pointsd/internal/ledger/metrics"
	"pointsd/internal/ledger/models"
	"pointsd/internal/ledger/ports"
	"pointsd/internal/ledger/txid"
	dErrors "pointsd/pkg/domain-errors"
	"pointsd/pkg/requestcontext"
)

// UnknownDisplayName is returned for users without a stored name.
const UnknownDisplayName = "unknown"

type Service struct {
	store          ports.BalanceStore
	audit          ports.AuditRecorder
	initialBalance int64
	logger         *slog.Logger
	metrics        *metrics.Metrics
	locks          userLocks
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithInitialBalance seeds records created by Add for unknown users.
func WithInitialBalance(balance int64) Option {
	return func(s *Service) {
		s.initialBalance = balance
	}
}

func New(store ports.BalanceStore, audit ports.AuditRecorder, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("balance store is required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}

	svc := &Service{
		store:  store,
		audit:  audit,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Get returns the user's balance, or models.BalanceNotFound (-1) when no
// record exists.
func (s *Service) Get(ctx context.Context, userID string) (int64, error) {
	record, err := s.store.Get(ctx, userID)
	if err != nil {
		s.emit(ctx, auditlog.Event{
			UserID:     userID,
			Operation:  string(models.OpGet),
			StatusCode: models.StatusStoreFailure,
			Comment:    "get failed: " + err.Error(),
		})
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "get balance")
	}

	s.emit(ctx, auditlog.Event{
		UserID:     userID,
		Operation:  string(models.OpGet),
		StatusCode: models.StatusOK,
	})
	if record == nil {
		return models.BalanceNotFound, nil
	}
	return record.Balance, nil
}

// GetDisplayName returns the last observed name for the user, or
// UnknownDisplayName when no record exists.
func (s *Service) GetDisplayName(ctx context.Context, userID string) (string, error) {
	record, err := s.store.Get(ctx, userID)
	if err != nil {
		s.emit(ctx, auditlog.Event{
			UserID:     userID,
			Operation:  string(models.OpGet),
			StatusCode: models.StatusStoreFailure,
			Comment:    "get display name failed: " + err.Error(),
		})
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "get display name")
	}

	s.emit(ctx, auditlog.Event{
		UserID:     userID,
		Operation:  string(models.OpGet),
		StatusCode: models.StatusOK,
	})
	if record == nil || record.DisplayName == "" {
		return UnknownDisplayName, nil
	}
	return record.DisplayName, nil
}

// Set replaces the user's balance unconditionally, creating the record if
// absent. A transaction token is optional but must be well-formed when given.
func (s *Service) Set(ctx context.Context, userID, transactionID string, balance int64) models.Result {
	op := string(models.OpSet)

	if transactionID != "" && !txid.Valid(transactionID) {
		return s.reject(ctx, op, userID, transactionID, "invalid transaction token")
	}
	if balance < 0 {
		return s.reject(ctx, op, userID, transactionID, "balance cannot be negative")
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	var previous int64
	record, err := s.store.Get(ctx, userID)
	if err == nil {
		if record != nil {
			previous = record.Balance
		}
		err = s.store.Upsert(ctx, models.Balance{UserID: userID, Balance: balance})
	}
	if err != nil {
		return s.storeFailure(ctx, op, userID, transactionID, err)
	}

	s.emit(ctx, auditlog.Event{
		UserID:        userID,
		Operation:     op,
		StatusCode:    models.StatusOK,
		PreviousValue: &previous,
		NewValue:      &balance,
		TransactionID: transactionID,
	})
	return models.Result{Code: models.StatusOK, Msg: "balance set"}
}

// Add increases the user's balance, creating the record seeded at the
// configured initial balance plus amount for unknown users. The transaction
// token is required and structurally validated.
func (s *Service) Add(ctx context.Context, userID, transactionID string, amount int64) models.Result {
	op := string(models.OpAdd)

	if !txid.Valid(transactionID) {
		return s.reject(ctx, op, userID, transactionID, "invalid transaction token")
	}
	if amount < 0 {
		return s.reject(ctx, op, userID, transactionID, "amount cannot be negative")
	}
	if amount == 0 {
		return s.noOp(ctx, op, userID, transactionID)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	record, err := s.store.Get(ctx, userID)
	if err != nil {
		return s.storeFailure(ctx, op, userID, transactionID, err)
	}

	var previous, next int64
	if record == nil {
		next = s.initialBalance + amount
		err = s.store.Create(ctx, models.Balance{UserID: userID, Balance: next})
	} else {
		previous = record.Balance
		next = record.Balance + amount
		err = s.store.SetBalance(ctx, userID, next)
	}
	if err != nil {
		return s.storeFailure(ctx, op, userID, transactionID, err)
	}

	s.emit(ctx, auditlog.Event{
		UserID:        userID,
		Operation:     op,
		Amount:        &amount,
		StatusCode:    models.StatusOK,
		PreviousValue: &previous,
		NewValue:      &next,
		TransactionID: transactionID,
	})
	return models.Result{Code: models.StatusOK, Msg: "balance increased"}
}

// Reduce decreases the user's balance. Unknown users are rejected, and a
// reduce larger than the balance reports insufficient funds without
// mutating anything.
func (s *Service) Reduce(ctx context.Context, userID, transactionID string, amount int64) models.Result {
	op := string(models.OpReduce)

	if amount < 0 {
		return s.reject(ctx, op, userID, transactionID, "amount cannot be negative")
	}
	if amount == 0 {
		return s.noOp(ctx, op, userID, transactionID)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	record, err := s.store.Get(ctx, userID)
	if err != nil {
		return s.storeFailure(ctx, op, userID, transactionID, err)
	}
	if record == nil {
		return s.reject(ctx, op, userID, transactionID, "user not found")
	}
	if record.Balance < amount {
		s.emit(ctx, auditlog.Event{
			UserID:        userID,
			Operation:     op,
			Amount:        &amount,
			StatusCode:    models.StatusInsufficient,
			Comment:       "insufficient balance",
			TransactionID: transactionID,
		})
		return models.Result{Code: models.StatusInsufficient, Msg: "insufficient balance"}
	}

	next := record.Balance - amount
	if err := s.store.SetBalance(ctx, userID, next); err != nil {
		return s.storeFailure(ctx, op, userID, transactionID, err)
	}

	s.emit(ctx, auditlog.Event{
		UserID:        userID,
		Operation:     op,
		Amount:        &amount,
		StatusCode:    models.StatusOK,
		PreviousValue: &record.Balance,
		NewValue:      &next,
		TransactionID: transactionID,
	})
	return models.Result{Code: models.StatusOK, Msg: "balance reduced"}
}

// UpdateDisplayName overwrites the stored name for an existing user. Unknown
// users are a no-op: names only ever attach to records that balance
// mutations created, so name capture cannot seed a balance.
func (s *Service) UpdateDisplayName(ctx context.Context, userID, name string) models.Result {
	op := string(models.OpUpdateName)

	unlock := s.locks.lock(userID)
	defer unlock()

	record, err := s.store.Get(ctx, userID)
	if err != nil {
		return s.storeFailure(ctx, op, userID, "", err)
	}
	if record == nil {
		return s.noOp(ctx, op, userID, "")
	}
	if err := s.store.SetDisplayName(ctx, userID, name); err != nil {
		return s.storeFailure(ctx, op, userID, "", err)
	}

	s.emit(ctx, auditlog.Event{
		UserID:     userID,
		Operation:  op,
		StatusCode: models.StatusOK,
	})
	return models.Result{Code: models.StatusOK, Msg: "display name updated"}
}

// TopN returns up to n users ordered by balance descending. Order among
// equal balances is unspecified but stable within a single call.
func (s *Service) TopN(ctx context.Context, n int) ([]models.TopEntry, error) {
	op := string(models.OpTopN)

	if n <= 0 {
		s.emit(ctx, auditlog.Event{
			Operation:  op,
			StatusCode: models.StatusInvalid,
			Comment:    "n must be a positive integer",
		})
		return nil, dErrors.New(dErrors.CodeBadRequest, "n must be a positive integer")
	}

	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		s.emit(ctx, auditlog.Event{
			Operation:  op,
			StatusCode: models.StatusStoreFailure,
			Comment:    "topN failed: " + err.Error(),
		})
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query leaderboard")
	}

	s.emit(ctx, auditlog.Event{
		Operation:  op,
		StatusCode: models.StatusOK,
	})
	return entries, nil
}

// GenerateTransactionID mints a token for callers that mutate balances.
func (s *Service) GenerateTransactionID() string {
	return txid.New()
}

// emit hands the event to the audit recorder with plugin attribution from
// the request context. Recording is fire-and-forget by contract.
func (s *Service) emit(ctx context.Context, event auditlog.Event) {
	if event.PluginName == "" {
		event.PluginName = requestcontext.PluginName(ctx)
	}
	s.audit.Record(ctx, event)
	s.metrics.IncOperation(event.Operation, event.StatusCode)
}

func (s *Service) reject(ctx context.Context, op, userID, transactionID, reason string) models.Result {
	s.emit(ctx, auditlog.Event{
		UserID:        userID,
		Operation:     op,
		StatusCode:    models.StatusInvalid,
		Comment:       reason,
		TransactionID: transactionID,
	})
	return models.Result{Code: models.StatusInvalid, Msg: reason}
}

func (s *Service) noOp(ctx context.Context, op, userID, transactionID string) models.Result {
	s.emit(ctx, auditlog.Event{
		UserID:        userID,
		Operation:     op,
		StatusCode:    models.StatusNoOp,
		TransactionID: transactionID,
	})
	return models.Result{Code: models.StatusNoOp, Msg: "nothing to do"}
}

func (s *Service) storeFailure(ctx context.Context, op, userID, transactionID string, err error) models.Result {
	s.logger.ErrorContext(ctx, "ledger store failure",
		"operation", op,
		"user_id", userID,
		"error", err,
	)
	s.emit(ctx, auditlog.Event{
		UserID:        userID,
		Operation:     op,
		StatusCode:    models.StatusStoreFailure,
		Comment:       op + " failed: " + err.Error(),
		TransactionID: transactionID,
	})
	return models.Result{Code: models.StatusStoreFailure, Msg: op + " failed"}
}

// userLocks serializes writers per user so read-modify-write sequences on
// the same balance cannot interleave within this process. Mutexes are kept
// for the life of the process; the map grows with the user population.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
