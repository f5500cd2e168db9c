package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDollarsToCents(t *testing.T) {
	tests := []struct {
		name    string
		dollars float64
		want    int64
	}{
		{"whole dollars", 10000, 1_000_000},
		{"two decimals", 2.00, 200},
		{"half cent rounds up", 0.125, 13},
		{"negative half cent rounds away from zero", -0.125, -13},
		{"max budget", 100_000_000, MaxBudgetCents},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DollarsToCents(tt.dollars))
		})
	}
}

func TestBudgetMessageSucceeded(t *testing.T) {
	assert.True(t, BudgetMessageSucceeded("Budget updated successfully"))
	assert.False(t, BudgetMessageSucceeded("Budget must be greater than current spend"))
	assert.False(t, BudgetMessageSucceeded(""))
	assert.True(t, BudgetUpdateResult{AccountID: "1", Message: "updated successfully"}.Succeeded())
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$99999999.00", FormatCents(9_999_999_900))
	assert.Equal(t, "$100000001.00", FormatCents(10_000_000_100))
	assert.Equal(t, "$2.00", FormatDollars(2))
}

func TestSummarize(t *testing.T) {
	got := Summarize([]AccountOutcome{
		{AccountID: "a", Success: true},
		{AccountID: "b", Success: false},
		{AccountID: "c", Success: true},
	})
	assert.Equal(t, OutcomeSummary{TotalAccounts: 3, SuccessCount: 2, FailureCount: 1}, got)
}

func TestUpstreamError_Error(t *testing.T) {
	transport := &UpstreamError{Op: "fetch budget info", StatusCode: 502}
	assert.Equal(t, "fetch budget info: upstream returned HTTP 502", transport.Error())

	api := &UpstreamError{Op: "apply budget updates", APICode: 40001, Message: "invalid token"}
	assert.Equal(t, "apply budget updates: upstream api error 40001: invalid token", api.Error())

	var target *UpstreamError
	assert.True(t, errors.As(error(api), &target))
}

func TestSentinelHelpers(t *testing.T) {
	assert.ErrorIs(t, Forbiddenf("status is %s", CredentialStatusRevoked), ErrForbidden)
	assert.ErrorIs(t, Validationf("empty"), ErrValidation)
	assert.EqualError(t, Forbiddenf("Token expired"), "forbidden: Token expired")
}
