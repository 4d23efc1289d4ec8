package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noahxzhu/lighthouse/internal/model"
)

var contactCmd = &cobra.Command{
	Use:     "contact",
	Aliases: []string{"contacts", "c"},
	Short:   "Manage trusted contacts",
}

var contactListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List trusted contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := adapter.GetData(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(data.Contacts) == 0 {
			fmt.Fprintln(out, "No contacts.")
			return nil
		}
		for _, c := range data.Contacts {
			line := fmt.Sprintf("%s  %-6s %s", color.New(color.Faint).Sprint(shortID(c.ID)), c.Type, c.Value)
			if !c.IsEmail() {
				line += color.New(color.Faint).Sprint("  (not alerted)")
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var contactAddCmd = &cobra.Command{
	Use:   "add <value>",
	Short: "Add a trusted contact",
	Long: `Add a trusted contact. Only contacts of type "email" receive alerts.

EXAMPLES:

  lighthouse contact add friend@example.com
  lighthouse contact add --type phone "+1 555 0100"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("type")
		value := strings.TrimSpace(args[0])
		if value == "" {
			return fmt.Errorf("contact value must not be empty")
		}

		data, err := adapter.AddContact(cmd.Context(), model.Contact{Type: kind, Value: value})
		if err != nil {
			return fmt.Errorf("failed to save contact: %w", err)
		}
		added := data.Contacts[len(data.Contacts)-1]
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Added %s %s (%s)", added.Type, added.Value, shortID(added.ID)))
		return nil
	},
}

var contactRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a trusted contact",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := adapter.RemoveContact(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to remove contact: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("✗ Removed %s", args[0]))
		return nil
	},
}

func init() {
	contactAddCmd.Flags().String("type", model.ContactEmail, "contact type")

	contactCmd.AddCommand(contactListCmd, contactAddCmd, contactRemoveCmd)
	rootCmd.AddCommand(contactCmd)
}
