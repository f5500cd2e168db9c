package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Read and change ad account budgets",
	Long: `Run budget workflows with a stored credential. Without --credential the
owner's newest active credential for --platform is used.`,
}

var budgetInfoCmd = &cobra.Command{
	Use:   "info [account-id...]",
	Short: "Show current spending caps",
	Long: `Show current spending caps. Without account ids, every account on the
credential is queried.`,
	RunE: runBudgetInfo,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <account-id=dollars>...",
	Short: "Set absolute spending caps",
	Long: `Set absolute spending caps in dollars. An out-of-range amount rejects the
whole batch before anything is sent.

Examples:
  adbudgetctl budget set --owner u1 1234=500 5678=1250.50`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBudgetSet,
}

var budgetRechargeCmd = &cobra.Command{
	Use:   "recharge <account-id=dollars>...",
	Short: "Add to current spending caps",
	Long: `Add dollars to each account's current spending cap. The current cap is
read first, so two recharges of the same account running at the same time can
overwrite each other.

Examples:
  adbudgetctl budget recharge --owner u1 1234=250`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBudgetRecharge,
}

var (
	budgetOwner      string
	budgetCredential string
	budgetPlatform   string
)

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetInfoCmd, budgetSetCmd, budgetRechargeCmd)

	budgetCmd.PersistentFlags().StringVar(&budgetOwner, "owner", "", "Owner id (required)")
	budgetCmd.PersistentFlags().StringVar(&budgetCredential, "credential", "", "Credential id (default: newest active)")
	budgetCmd.PersistentFlags().StringVar(&budgetPlatform, "platform", model.PlatformNewsBreak, "Platform id")
	_ = budgetCmd.MarkPersistentFlagRequired("owner")
}

func budgetRef() model.CredentialRef {
	return model.CredentialRef{
		OwnerID:      budgetOwner,
		CredentialID: budgetCredential,
		PlatformID:   budgetPlatform,
	}
}

// amountArg is one account-id=dollars pair.
type amountArg struct {
	accountID string
	dollars   float64
}

func parseAmountArgs(args []string) ([]amountArg, error) {
	out := make([]amountArg, 0, len(args))
	for _, arg := range args {
		id, amount, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("expected account-id=dollars, got %q", arg)
		}
		dollars, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(amount), "$"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in %q: %w", arg, err)
		}
		out = append(out, amountArg{accountID: strings.TrimSpace(id), dollars: dollars})
	}
	return out, nil
}

func runBudgetInfo(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.budgets.GetBudgetInfo(cmd.Context(), budgetRef(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Credential: %s\n", outcome.CredentialName)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tSPENDING CAP\tCAN VIEW")
	for _, acc := range outcome.Accounts {
		capText := "-"
		if acc.SpendingCapCents != nil {
			capText = model.FormatCents(*acc.SpendingCapCents)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\n", acc.AccountID, capText, acc.CanViewBudget)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "%d accounts, %d with budget access\n", outcome.TotalAccounts, outcome.AccountsWithAccess)
	return nil
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
	amounts, err := parseAmountArgs(args)
	if err != nil {
		return err
	}

	updates := make([]model.BudgetUpdateRequest, 0, len(amounts))
	for _, am := range amounts {
		updates = append(updates, model.BudgetUpdateRequest{AccountID: am.accountID, AmountDollars: am.dollars})
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.budgets.SetBudget(cmd.Context(), budgetRef(), updates)
	if err != nil {
		return err
	}
	return printOutcome(cmd.OutOrStdout(), outcome)
}

func runBudgetRecharge(cmd *cobra.Command, args []string) error {
	amounts, err := parseAmountArgs(args)
	if err != nil {
		return err
	}

	requests := make([]model.RechargeRequest, 0, len(amounts))
	for _, am := range amounts {
		requests = append(requests, model.RechargeRequest{AccountID: am.accountID, AmountDollars: am.dollars})
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.budgets.Recharge(cmd.Context(), budgetRef(), requests)
	if err != nil {
		return err
	}
	return printOutcome(cmd.OutOrStdout(), outcome)
}

// printOutcome writes the per-account table and returns an error when the
// remote write did not go through, so the exit status reflects it.
func printOutcome(out io.Writer, o *model.ReconciliationOutcome) error {
	fmt.Fprintf(out, "Credential: %s\n", o.CredentialName)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tREQUESTED\tPREVIOUS\tNEW\tRESULT")
	for _, acc := range o.Accounts {
		result := "ok"
		if !acc.Success {
			result = "failed: " + acc.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			acc.AccountID,
			model.FormatDollars(acc.RequestedAmount),
			optionalCents(acc.PreviousCents),
			optionalCents(acc.NewCents),
			result)
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "%d succeeded, %d failed\n", o.Summary.SuccessCount, o.Summary.FailureCount)

	if !o.Success {
		return fmt.Errorf("budget update failed: %s", o.Error)
	}
	return nil
}

func optionalCents(c *int64) string {
	if c == nil {
		return "-"
	}
	return model.FormatCents(*c)
}
