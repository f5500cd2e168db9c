package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
	"github.com/ericfisherdev/adbudget/internal/domain/port/driven"
)

// Failure messages recorded on per-account outcomes.
const (
	msgBudgetUnavailable = "Could not retrieve current budget for this account"
	msgNothingToWrite    = "No valid budget updates could be calculated. All accounts had errors."
	msgNoResult          = "No result reported for this account"
	msgNotApplied        = "Budget update was not applied"
)

// CredentialResolver opens the secret of the credential a workflow runs with.
type CredentialResolver interface {
	ResolveRef(ctx context.Context, ref model.CredentialRef) (*model.Credential, string, error)
}

// BudgetService runs the budget reconciliation workflows against the budget
// client of the selected credential's platform. Validation, ownership and
// lifecycle failures are returned as errors; per-account failures are data.
//
// Recharge reads the current cap and writes current+delta. The remote API has
// no increment or version check, so concurrent recharges of the same account
// can lose an update.
type BudgetService struct {
	credentials CredentialResolver
	clients     *BudgetClientProvider
	logger      *slog.Logger
}

// NewBudgetService creates a new BudgetService with the required dependencies.
func NewBudgetService(credentials CredentialResolver, clients *BudgetClientProvider, logger *slog.Logger) *BudgetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetService{
		credentials: credentials,
		clients:     clients,
		logger:      logger,
	}
}

// GetBudgetInfo reads the current budget of accountIDs, or of every account
// on the credential when accountIDs is empty.
func (s *BudgetService) GetBudgetInfo(ctx context.Context, ref model.CredentialRef, accountIDs []string) (*model.BudgetInfoOutcome, error) {
	if len(accountIDs) > model.MaxBudgetInfoAccounts {
		return nil, model.Validationf("at most %d account ids can be queried at once, got %d", model.MaxBudgetInfoAccounts, len(accountIDs))
	}
	ids, err := normalizeAccountIDs(accountIDs)
	if err != nil {
		return nil, err
	}

	cred, secret, client, err := s.open(ctx, ref)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		ids = cred.ExternalAccountIDs
	}
	if len(ids) == 0 {
		return nil, model.Validationf("no account ids to query")
	}
	if len(ids) > model.MaxBudgetInfoAccounts {
		ids = ids[:model.MaxBudgetInfoAccounts]
	}

	infos, err := client.FetchBudgetInfo(ctx, secret, ids)
	if err != nil {
		return nil, err
	}

	outcome := &model.BudgetInfoOutcome{
		CredentialName: cred.Name,
		Accounts:       infos,
		TotalAccounts:  len(infos),
	}
	for _, info := range infos {
		if info.CanViewBudget {
			outcome.AccountsWithAccess++
		}
	}

	s.logger.Info("budget info fetched",
		"credential_id", cred.ID,
		"owner_id", ref.OwnerID,
		"total_accounts", outcome.TotalAccounts,
		"accounts_with_access", outcome.AccountsWithAccess,
	)

	return outcome, nil
}

// SetBudget sets absolute spending caps. Any out-of-range amount rejects the
// whole batch before a remote call is made. A failed remote call yields an
// outcome with Success false rather than an error.
func (s *BudgetService) SetBudget(ctx context.Context, ref model.CredentialRef, updates []model.BudgetUpdateRequest) (*model.ReconciliationOutcome, error) {
	if len(updates) == 0 {
		return nil, model.Validationf("no budget updates provided")
	}
	seen := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		if err := checkAccountID(seen, u.AccountID); err != nil {
			return nil, err
		}
	}

	cred, secret, client, err := s.open(ctx, ref)
	if err != nil {
		return nil, err
	}

	batch := make([]model.BudgetUpdate, 0, len(updates))
	requested := make(map[string]model.BudgetUpdateRequest, len(updates))
	for _, u := range updates {
		cents, ok := toCents(u.AmountDollars)
		if !ok {
			return nil, model.Validationf("invalid budget for account %s", u.AccountID)
		}
		if cents < 0 || cents > model.MaxBudgetCents {
			return nil, model.Validationf("budget must be between $0 and $100M, invalid budget for account %s: %s",
				u.AccountID, model.FormatCents(cents))
		}
		batch = append(batch, model.BudgetUpdate{AccountID: u.AccountID, Cents: cents})
		requested[u.AccountID] = u
	}

	outcome := &model.ReconciliationOutcome{CredentialName: cred.Name}

	results, err := client.ApplyBudgetUpdates(ctx, secret, batch)
	if err != nil {
		outcome.Accounts = make([]model.AccountOutcome, 0, len(batch))
		for _, b := range batch {
			newCents := b.Cents
			outcome.Accounts = append(outcome.Accounts, model.AccountOutcome{
				AccountID:       b.AccountID,
				RequestedAmount: requested[b.AccountID].AmountDollars,
				NewCents:        &newCents,
				ErrorMessage:    msgNotApplied,
			})
		}
		s.recordApplyFailure(outcome, err)
		s.logOutcome(ctx, "set budget", cred, ref, outcome)
		return outcome, nil
	}

	outcome.Success = true
	outcome.Accounts = make([]model.AccountOutcome, 0, len(results))
	for _, r := range results {
		entry := model.AccountOutcome{
			AccountID:     r.AccountID,
			UpdateMessage: r.Message,
			Success:       r.Succeeded(),
		}
		if req, ok := requested[r.AccountID]; ok {
			cents := model.DollarsToCents(req.AmountDollars)
			entry.RequestedAmount = req.AmountDollars
			entry.NewCents = &cents
		}
		if !entry.Success {
			entry.ErrorMessage = r.Message
		}
		outcome.Accounts = append(outcome.Accounts, entry)
	}
	outcome.Summary = model.Summarize(outcome.Accounts)

	s.logOutcome(ctx, "set budget", cred, ref, outcome)
	return outcome, nil
}

// Recharge adds each requested amount to the account's current spending cap.
// Accounts whose current cap is unknown or whose new total would exceed the
// limit fail individually and are left out of the write.
func (s *BudgetService) Recharge(ctx context.Context, ref model.CredentialRef, requests []model.RechargeRequest) (*model.ReconciliationOutcome, error) {
	if len(requests) == 0 {
		return nil, model.Validationf("no recharge updates provided")
	}
	seen := make(map[string]struct{}, len(requests))
	for _, r := range requests {
		if err := checkAccountID(seen, r.AccountID); err != nil {
			return nil, err
		}
		if !isFinite(r.AmountDollars) || r.AmountDollars <= 0 || r.AmountDollars > model.MaxRechargeDollars {
			return nil, model.Validationf("recharge amount must be between $0 and $100M, invalid recharge for account %s: %s",
				r.AccountID, model.FormatDollars(r.AmountDollars))
		}
	}

	cred, secret, client, err := s.open(ctx, ref)
	if err != nil {
		return nil, err
	}

	accountIDs := make([]string, len(requests))
	for i, r := range requests {
		accountIDs[i] = r.AccountID
	}

	infos, err := client.FetchBudgetInfo(ctx, secret, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch current budgets: %w", err)
	}

	current := make(map[string]int64, len(infos))
	for _, info := range infos {
		if info.SpendingCapCents != nil {
			current[info.AccountID] = *info.SpendingCapCents
		}
	}

	outcome := &model.ReconciliationOutcome{CredentialName: cred.Name}
	outcome.Accounts = make([]model.AccountOutcome, 0, len(requests))
	var batch []model.BudgetUpdate

	for _, r := range requests {
		entry := model.AccountOutcome{
			AccountID:       r.AccountID,
			RequestedAmount: r.AmountDollars,
		}

		currentCents, ok := current[r.AccountID]
		if !ok {
			entry.ErrorMessage = msgBudgetUnavailable
			outcome.Accounts = append(outcome.Accounts, entry)
			continue
		}
		entry.PreviousCents = &currentCents

		newCents := currentCents + model.DollarsToCents(r.AmountDollars)
		if newCents > model.MaxBudgetCents {
			entry.ErrorMessage = fmt.Sprintf("New budget total would exceed $100M limit. Current: %s, Recharge: %s, Total: %s",
				model.FormatCents(currentCents), model.FormatDollars(r.AmountDollars), model.FormatCents(newCents))
			outcome.Accounts = append(outcome.Accounts, entry)
			continue
		}

		entry.NewCents = &newCents
		batch = append(batch, model.BudgetUpdate{AccountID: r.AccountID, Cents: newCents})
		outcome.Accounts = append(outcome.Accounts, entry)
	}

	if len(batch) == 0 {
		outcome.Error = msgNothingToWrite
		outcome.Summary = model.Summarize(outcome.Accounts)
		s.logOutcome(ctx, "recharge", cred, ref, outcome)
		return outcome, nil
	}

	results, err := client.ApplyBudgetUpdates(ctx, secret, batch)
	if err != nil {
		for i := range outcome.Accounts {
			if outcome.Accounts[i].ErrorMessage == "" {
				outcome.Accounts[i].ErrorMessage = msgNotApplied
			}
		}
		s.recordApplyFailure(outcome, err)
		s.logOutcome(ctx, "recharge", cred, ref, outcome)
		return outcome, nil
	}

	messages := make(map[string]string, len(results))
	for _, r := range results {
		messages[r.AccountID] = r.Message
	}

	for i := range outcome.Accounts {
		entry := &outcome.Accounts[i]
		if entry.NewCents == nil {
			continue
		}
		msg, ok := messages[entry.AccountID]
		if !ok {
			entry.ErrorMessage = msgNoResult
			continue
		}
		entry.UpdateMessage = msg
		entry.Success = model.BudgetMessageSucceeded(msg)
		if !entry.Success {
			entry.ErrorMessage = msg
		}
	}

	outcome.Success = true
	outcome.Summary = model.Summarize(outcome.Accounts)

	s.logOutcome(ctx, "recharge", cred, ref, outcome)
	return outcome, nil
}

// open resolves the credential and the budget client of its platform.
func (s *BudgetService) open(ctx context.Context, ref model.CredentialRef) (*model.Credential, string, driven.BudgetClient, error) {
	cred, secret, err := s.credentials.ResolveRef(ctx, ref)
	if err != nil {
		return nil, "", nil, err
	}

	client, ok := s.clients.Get(cred.PlatformID)
	if !ok {
		return nil, "", nil, model.Validationf("budget operations are not supported for platform %s", cred.PlatformID)
	}

	return cred, secret, client, nil
}

// recordApplyFailure marks outcome as failed at the remote call layer while
// keeping the per-account entries already computed.
func (s *BudgetService) recordApplyFailure(outcome *model.ReconciliationOutcome, err error) {
	outcome.Success = false
	outcome.Error = err.Error()

	var upstream *model.UpstreamError
	if errors.As(err, &upstream) {
		outcome.Upstream = upstream
	}

	outcome.Summary = model.Summarize(outcome.Accounts)
}

func (s *BudgetService) logOutcome(ctx context.Context, workflow string, cred *model.Credential, ref model.CredentialRef, outcome *model.ReconciliationOutcome) {
	level := slog.LevelInfo
	if !outcome.Success {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, workflow+" finished",
		"credential_id", cred.ID,
		"owner_id", ref.OwnerID,
		"success", outcome.Success,
		"success_count", outcome.Summary.SuccessCount,
		"failure_count", outcome.Summary.FailureCount,
	)
}

// checkAccountID rejects a blank id or one already present in seen, then
// records it. Results are matched back to requests by account id.
func checkAccountID(seen map[string]struct{}, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return model.Validationf("account id is required")
	}
	if _, dup := seen[accountID]; dup {
		return model.Validationf("account %s appears more than once", accountID)
	}
	seen[accountID] = struct{}{}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// maxConvertibleDollars keeps DollarsToCents well inside the int64 range.
const maxConvertibleDollars = 1e15

func toCents(dollars float64) (int64, bool) {
	if !isFinite(dollars) || math.Abs(dollars) > maxConvertibleDollars {
		return 0, false
	}
	return model.DollarsToCents(dollars), true
}
