// Package models defines the ledger's domain types and status-coded results.
package models

// Operation labels every ledger call for audit attribution.
type Operation string

const (
	OpGet        Operation = "get"
	OpSet        Operation = "set"
	OpAdd        Operation = "add"
	OpReduce     Operation = "reduce"
	OpUpdateName Operation = "updateName"
	OpTopN       Operation = "topN"
)

// Status codes returned at the public boundary. Business rejections are
// results, not errors; callers branch on the code.
const (
	StatusOK           = 200
	StatusNoOp         = 204 // zero-amount add/reduce, nothing written
	StatusInsufficient = 304 // reduce larger than the balance
	StatusInvalid      = 400 // malformed token, negative amount, unknown user
	StatusStoreFailure = 500
)

// BalanceNotFound is returned by Get for users without a record.
const BalanceNotFound int64 = -1

// Balance is the per-user balance record. Balance is never persisted negative.
type Balance struct {
	UserID      string
	DisplayName string
	Balance     int64
}

// Result is the outcome of a mutating ledger operation.
type Result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// OK reports whether the operation succeeded, counting no-ops as success.
func (r Result) OK() bool { return r.Code >= 200 && r.Code < 300 }

// TopEntry is one leaderboard row. Order among equal balances is
// store-dependent and not deterministic across calls.
type TopEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Balance     int64  `json:"balance"`
}
