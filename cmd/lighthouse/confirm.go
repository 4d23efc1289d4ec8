package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noahxzhu/lighthouse/internal/safety"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm <code>",
	Short: "Confirm you are safe",
	Long: `Enter your safe code or current TOTP code to record a safe check-in.

Entering the danger code mails an alert to your email contacts right away,
as does any wrong code when trust-no-mistype is enabled. The output never
reveals which happened beyond a generic acknowledgement.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcome, err := checker.Confirm(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch outcome {
		case safety.Safe, safety.Danger:
			// safe and danger must look the same on screen
			fmt.Fprintln(out, color.GreenString("✓ Check-in received"))
		default:
			fmt.Fprintln(out, color.YellowString("Code not recognised, try again"))
		}
		return nil
	},
}

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Send the alert to your contacts now",
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		if err := checker.Trigger(cmd.Context(), reason); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.RedString("! Alert sent"))
		return nil
	},
}

func init() {
	alertCmd.Flags().String("reason", safety.ReasonManual, "reason shown in the alert")

	rootCmd.AddCommand(confirmCmd, alertCmd)
}
