package driven

import (
	"context"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

// BudgetClient defines the driven port for one advertising platform's budget
// API. Implementations are stateless, perform a single attempt per call and
// report both transport and API-envelope failures as *model.UpstreamError.
type BudgetClient interface {
	// FetchBudgetInfo reads the current budget state of the given accounts.
	FetchBudgetInfo(ctx context.Context, secret string, accountIDs []string) ([]model.BudgetAccountInfo, error)

	// ApplyBudgetUpdates sets absolute spending caps. A nil error means the
	// call was accepted; per-account outcomes are in the returned messages.
	ApplyBudgetUpdates(ctx context.Context, secret string, updates []model.BudgetUpdate) ([]model.BudgetUpdateResult, error)
}
