package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noahxzhu/lighthouse/internal/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change alert settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := adapter.GetData(cmd.Context())
		if err != nil {
			return err
		}
		s := data.Settings
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "include schedules in alert: %t\n", s.IncludeScheduleInAlert)
		fmt.Fprintf(out, "safe code:                  %s\n", mask(s.SafeCode))
		fmt.Fprintf(out, "danger code:                %s\n", mask(s.DangerCode))
		fmt.Fprintf(out, "trust no mistype:           %t\n", s.TrustNoMistype)
		fmt.Fprintf(out, "totp:                       %s\n", enabled(s.TotpSecret != ""))
		fmt.Fprintf(out, "alert message:              %s\n", s.AlertMessage)
		lastSafe := "never"
		if s.LastSafeAt > 0 {
			lastSafe = time.UnixMilli(s.LastSafeAt).Format(time.RFC1123)
		}
		fmt.Fprintf(out, "last safe check-in:         %s\n", lastSafe)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings; only the given flags are updated",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var patch model.SettingsPatch
		changed := false

		if flags.Changed("safe-code") {
			v, _ := flags.GetString("safe-code")
			patch.SafeCode = &v
			changed = true
		}
		if flags.Changed("danger-code") {
			v, _ := flags.GetString("danger-code")
			patch.DangerCode = &v
			changed = true
		}
		if flags.Changed("message") {
			v, _ := flags.GetString("message")
			patch.AlertMessage = &v
			changed = true
		}
		if flags.Changed("include-schedules") {
			v, _ := flags.GetBool("include-schedules")
			patch.IncludeScheduleInAlert = &v
			changed = true
		}
		if flags.Changed("trust-no-mistype") {
			v, _ := flags.GetBool("trust-no-mistype")
			patch.TrustNoMistype = &v
			changed = true
		}
		if !changed {
			return fmt.Errorf("nothing to change; see --help")
		}

		data, err := adapter.SetSettings(cmd.Context(), patch)
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		if data.Settings.SafeCode != "" && data.Settings.SafeCode == data.Settings.DangerCode {
			fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("! safe and danger codes are identical; the danger code wins"))
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Settings saved"))
		return nil
	},
}

func mask(code string) string {
	if code == "" {
		return "(not set)"
	}
	return "****"
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func init() {
	f := settingsSetCmd.Flags()
	f.String("safe-code", "", "code that confirms you are safe")
	f.String("danger-code", "", "code that silently raises the alert")
	f.String("message", "", "message included in every alert")
	f.Bool("include-schedules", true, "include risk schedules in alerts")
	f.Bool("trust-no-mistype", false, "treat any wrong code as the danger code")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
