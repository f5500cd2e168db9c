package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Manage stored credentials",
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an owner's credentials",
	Args:  cobra.NoArgs,
	RunE:  runCredentialsList,
}

var credentialsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new credential",
	Long: `Store a new platform access token. The token is encrypted before it is written.

Examples:
  adbudgetctl credentials add --owner u1 --name Main --token "$TOKEN" --account 1234 --account 5678
  adbudgetctl credentials add --owner u1 --name Temp --token "$TOKEN" --account 1234 --expires 2027-01-01T00:00:00Z`,
	Args: cobra.NoArgs,
	RunE: runCredentialsAdd,
}

var credentialsRevokeCmd = &cobra.Command{
	Use:   "revoke <credential-id>",
	Short: "Revoke a credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredentialsRevoke,
}

var (
	credOwner    string
	credPlatform string
	credName     string
	credToken    string
	credAccounts []string
	credEmail    string
	credExpires  string
)

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsListCmd, credentialsAddCmd, credentialsRevokeCmd)

	credentialsCmd.PersistentFlags().StringVar(&credOwner, "owner", "", "Owner id (required)")
	_ = credentialsCmd.MarkPersistentFlagRequired("owner")

	credentialsAddCmd.Flags().StringVar(&credPlatform, "platform", model.PlatformNewsBreak, "Platform id")
	credentialsAddCmd.Flags().StringVar(&credName, "name", "", "Display name (required)")
	credentialsAddCmd.Flags().StringVar(&credToken, "token", "", "Access token (required)")
	credentialsAddCmd.Flags().StringSliceVar(&credAccounts, "account", nil, "External ad account id (repeatable)")
	credentialsAddCmd.Flags().StringVar(&credEmail, "email", "", "Account e-mail")
	credentialsAddCmd.Flags().StringVar(&credExpires, "expires", "", "Token expiry (RFC 3339)")
	_ = credentialsAddCmd.MarkFlagRequired("name")
	_ = credentialsAddCmd.MarkFlagRequired("token")
}

func runCredentialsList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	creds, err := a.credentials.ListByOwner(cmd.Context(), credOwner)
	if err != nil {
		return err
	}

	if len(creds) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No credentials.")
		return nil
	}

	printCredentials(cmd, creds)
	return nil
}

func printCredentials(cmd *cobra.Command, creds []model.Credential) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLATFORM\tNAME\tSTATUS\tACCOUNTS\tEXPIRES\tCREATED")
	for _, c := range creds {
		expires := "-"
		if c.TokenExpiresAt != nil {
			expires = c.TokenExpiresAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.PlatformID, c.Name, c.Status,
			strings.Join(c.ExternalAccountIDs, ","), expires,
			c.CreatedAt.UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func runCredentialsAdd(cmd *cobra.Command, _ []string) error {
	in := model.NewCredential{
		OwnerID:            credOwner,
		PlatformID:         credPlatform,
		Name:               credName,
		Secret:             credToken,
		ExternalAccountIDs: credAccounts,
		AccountEmail:       credEmail,
	}
	if credExpires != "" {
		t, err := time.Parse(time.RFC3339, credExpires)
		if err != nil {
			return fmt.Errorf("invalid --expires %q: %w", credExpires, err)
		}
		in.TokenExpiresAt = &t
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	cred, err := a.credentials.Create(cmd.Context(), in)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created credential %s (%s)\n", cred.ID, cred.Name)
	return nil
}

func runCredentialsRevoke(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.credentials.Revoke(cmd.Context(), args[0], credOwner); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Revoked credential %s\n", args[0])
	return nil
}
