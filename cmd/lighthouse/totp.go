package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noahxzhu/lighthouse/internal/model"
	"github.com/noahxzhu/lighthouse/internal/totp"
)

var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Manage the one-time password used to confirm safety",
}

var totpNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate and store a new TOTP secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetString("account")
		secret, url, err := totp.GenerateSecret("Lighthouse", account)
		if err != nil {
			return err
		}
		if _, err := adapter.SetSettings(cmd.Context(), model.SettingsPatch{TotpSecret: &secret}); err != nil {
			return fmt.Errorf("failed to save secret: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, color.GreenString("✓ New TOTP secret stored"))
		fmt.Fprintf(out, "secret: %s\n", secret)
		fmt.Fprintf(out, "url:    %s\n", url)
		return nil
	},
}

var totpCodeCmd = &cobra.Command{
	Use:   "code",
	Short: "Print the current code",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := adapter.GetData(cmd.Context())
		if err != nil {
			return err
		}
		if data.Settings.TotpSecret == "" {
			return fmt.Errorf("no TOTP secret configured; run 'lighthouse totp new'")
		}
		now := time.Now()
		code, err := totp.CurrentCode(data.Settings.TotpSecret, now)
		if err != nil {
			return err
		}
		left := totp.Period - now.Unix()%totp.Period
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", color.New(color.Bold).Sprint(code), color.New(color.Faint).Sprintf("(%ds left)", left))
		return nil
	},
}

var totpVerifyCmd = &cobra.Command{
	Use:   "verify <code>",
	Short: "Check a code without recording a check-in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := adapter.GetData(cmd.Context())
		if err != nil {
			return err
		}
		if !totp.Verify(args[0], data.Settings.TotpSecret, time.Now()) {
			return fmt.Errorf("code is not valid")
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Code is valid"))
		return nil
	},
}

func init() {
	totpNewCmd.Flags().String("account", "me", "account label shown in the authenticator app")

	totpCmd.AddCommand(totpNewCmd, totpCodeCmd, totpVerifyCmd)
	rootCmd.AddCommand(totpCmd)
}
