package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tiliavir/ponto/internal/remote"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

var (
	remoteEmail    string
	remotePassword string
	remoteMonth    string
	remoteDryRun   bool
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Shared backend integration",
}

var remoteLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend and store the token",
	Args:  cobra.NoArgs,
	RunE:  runRemoteLogin,
}

var remoteSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull a month of punches from the backend into local storage",
	Args:  cobra.NoArgs,
	RunE:  runRemoteSync,
}

func init() {
	remoteLoginCmd.Flags().StringVar(&remoteEmail, "email", "", "Account email")
	remoteLoginCmd.Flags().StringVar(&remotePassword, "password", "", "Account password (or PONTO_PASSWORD)")
	_ = remoteLoginCmd.MarkFlagRequired("email")

	remoteSyncCmd.Flags().StringVar(&remoteMonth, "month", "", "Month to sync (YYYY-MM, default current)")
	remoteSyncCmd.Flags().BoolVar(&remoteDryRun, "dry-run", false, "Print planned operations without writing")

	remoteCmd.AddCommand(remoteLoginCmd)
	remoteCmd.AddCommand(remoteSyncCmd)
}

func runRemoteLogin(cmd *cobra.Command, args []string) error {
	password := remotePassword
	if password == "" {
		password = viper.GetString("password")
	}
	if password == "" {
		return userError("--password or PONTO_PASSWORD is required")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()
	if !a.cfg.RemoteEnabled() {
		return userError("no backend configured; set remote.url in the config or PONTO_REMOTE_URL")
	}

	ctx := cmd.Context()
	opts := a.remoteOptions()
	tok, err := remote.Login(ctx, opts, remoteEmail, password)
	if err != nil {
		return userError("%v", err)
	}

	user, err := remote.NewClient(ctx, opts, tok).CurrentUser(ctx)
	if err != nil {
		return systemError(fmt.Errorf("signed in but could not load the account: %w", err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Signed in as %s (user id %s).\n", user.Email, user.ID)
	if user.ID != a.cfg.UserID {
		fmt.Fprintf(out, "Tip: set \"user_id\": %q in the config to use this account by default.\n", user.ID)
	}
	return nil
}

func runRemoteSync(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	ref := a.now()
	if remoteMonth != "" {
		if ref, err = timecalc.ParseMonth(remoteMonth, a.loc); err != nil {
			return userError("%v", err)
		}
	}
	from, to := timecalc.MonthRange(ref)

	ctx := cmd.Context()
	client, err := a.remoteClient(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	dryTag := ""
	if remoteDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Syncing punches for %s (%s → %s)%s...\n",
		a.cfg.UserID, from.Format("2006-01-02"), to.Format("2006-01-02"), dryTag)

	rows, err := client.FetchPunches(ctx, a.cfg.UserID, from, to)
	if err != nil {
		return systemError(fmt.Errorf("failed to fetch punches: %w", err))
	}

	result, err := remote.SyncPunches(ctx, a.store, rows, remote.SyncOptions{
		UserID:   a.cfg.UserID,
		Location: a.loc,
		From:     from,
		To:       to,
		DryRun:   remoteDryRun,
		Logger:   a.logger,
	})
	if err != nil {
		return systemError(fmt.Errorf("sync error: %w", err))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  %d imported\n", result.Imported)
	fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(out, "  %d updated\n", result.Updated)
	if result.Errors > 0 {
		fmt.Fprintf(out, "  %d errors\n", result.Errors)
		return systemError(fmt.Errorf("%d remote punches could not be imported", result.Errors))
	}
	return nil
}
