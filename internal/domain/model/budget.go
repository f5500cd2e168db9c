package model

import (
	"fmt"
	"math"
	"strings"
)

// Budget limits in minor units (cents) and major units (dollars).
const (
	MaxBudgetCents        int64   = 10_000_000_000
	MaxRechargeDollars    float64 = 100_000_000
	MaxBudgetInfoAccounts         = 500
)

// budgetSuccessMarker is the word the remote platform puts in a per-account
// message when the update was applied. The platform exposes no structured
// per-account status code.
const budgetSuccessMarker = "successfully"

// BudgetMessageSucceeded reports whether a per-account apply message signals
// success. All free-text success detection goes through this predicate.
func BudgetMessageSucceeded(message string) bool {
	return strings.Contains(message, budgetSuccessMarker)
}

// DollarsToCents converts a currency amount to minor units, rounding half
// away from zero.
func DollarsToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// FormatCents renders a minor-unit amount as dollars with two decimals.
func FormatCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

// FormatDollars renders a dollar amount with two decimals.
func FormatDollars(dollars float64) string {
	return fmt.Sprintf("$%.2f", dollars)
}

// BudgetAccountInfo is the remote platform's view of one ad account budget.
// SpendingCapCents is nil when the platform did not report a cap.
type BudgetAccountInfo struct {
	AccountID        string
	SpendingCapCents *int64
	CanViewBudget    bool
}

// BudgetUpdate is a single absolute spending cap to apply, in cents.
type BudgetUpdate struct {
	AccountID string
	Cents     int64
}

// BudgetUpdateResult is the remote platform's per-account reply to an apply call.
type BudgetUpdateResult struct {
	AccountID string
	Message   string
}

// Succeeded reports whether the platform applied this account's update.
func (r BudgetUpdateResult) Succeeded() bool {
	return BudgetMessageSucceeded(r.Message)
}

// BudgetUpdateRequest asks for an account's spending cap to be set to AmountDollars.
type BudgetUpdateRequest struct {
	AccountID     string
	AmountDollars float64
}

// RechargeRequest asks for AmountDollars to be added to an account's spending cap.
type RechargeRequest struct {
	AccountID     string
	AmountDollars float64
}

// AccountOutcome is the per-account entry of a reconciliation result. Both
// budget workflows report through this type. A failed entry carries
// ErrorMessage; it is data, never a returned error.
type AccountOutcome struct {
	AccountID       string
	RequestedAmount float64
	PreviousCents   *int64
	NewCents        *int64
	UpdateMessage   string
	Success         bool
	ErrorMessage    string
}

// OutcomeSummary aggregates per-account entries.
type OutcomeSummary struct {
	TotalAccounts int
	SuccessCount  int
	FailureCount  int
}

// ReconciliationOutcome is returned by the set and recharge workflows.
// Success reports whether the remote write layer succeeded; per-account
// failures are visible in Accounts and Summary.
type ReconciliationOutcome struct {
	Success        bool
	CredentialName string
	Accounts       []AccountOutcome
	Summary        OutcomeSummary
	Error          string
	Upstream       *UpstreamError
}

// Summarize counts successes and failures over entries.
func Summarize(entries []AccountOutcome) OutcomeSummary {
	s := OutcomeSummary{TotalAccounts: len(entries)}
	for _, e := range entries {
		if e.Success {
			s.SuccessCount++
		} else {
			s.FailureCount++
		}
	}
	return s
}

// BudgetInfoOutcome is returned by the budget info query.
type BudgetInfoOutcome struct {
	CredentialName     string
	Accounts           []BudgetAccountInfo
	TotalAccounts      int
	AccountsWithAccess int
}
