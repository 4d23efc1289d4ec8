package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noahxzhu/lighthouse/internal/model"
)

// deadlineLayout matches an HTML datetime-local value.
const deadlineLayout = "2006-01-02T15:04"

var deadlineInputs = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDeadline(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range deadlineInputs {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format(deadlineLayout), nil
		}
	}
	return "", fmt.Errorf("invalid deadline %q (use YYYY-MM-DD HH:MM)", s)
}

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Aliases: []string{"schedules", "s"},
	Short:   "Manage risk schedules",
}

var scheduleListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List risk schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := adapter.GetData(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(data.Schedules) == 0 {
			fmt.Fprintln(out, "No schedules.")
			return nil
		}
		faint := color.New(color.Faint)
		for _, s := range data.Schedules {
			fmt.Fprintf(out, "%s  %s  deadline %s\n", faint.Sprint(shortID(s.ID)), color.New(color.Bold).Sprint(s.Title), s.LastSafeDeadline)
			for _, extra := range []struct{ label, value string }{
				{"location", s.Location}, {"people", s.People}, {"notes", s.Notes},
			} {
				if extra.value != "" {
					fmt.Fprintf(out, "    %s: %s\n", extra.label, extra.value)
				}
			}
		}
		return nil
	},
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace a risk schedule",
	Long: `Add a risk schedule, or replace the one with the same --id.

EXAMPLES:

  lighthouse schedule add --title "Cave dive" --deadline "2025-06-01 18:00" --location "Blue hole"
  lighthouse schedule add --id 3f2a... --title "Cave dive" --deadline 2025-06-02`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		id, _ := flags.GetString("id")
		title, _ := flags.GetString("title")
		rawDeadline, _ := flags.GetString("deadline")
		location, _ := flags.GetString("location")
		people, _ := flags.GetString("people")
		notes, _ := flags.GetString("notes")

		deadline, err := parseDeadline(rawDeadline)
		if err != nil {
			return err
		}
		if id == "" {
			id = uuid.NewString()
		}

		s := model.Schedule{
			ID:               id,
			Title:            title,
			LastSafeDeadline: model.Timestamp(deadline),
			Location:         location,
			People:           people,
			Notes:            notes,
		}
		if _, err := adapter.UpsertSchedule(cmd.Context(), s); err != nil {
			return fmt.Errorf("failed to save schedule: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Saved %s (%s)", s.Title, shortID(s.ID)))
		return nil
	},
}

var scheduleDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a risk schedule",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := adapter.DeleteSchedule(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete schedule: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("✗ Deleted %s", args[0]))
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	scheduleAddCmd.Flags().String("id", "", "schedule id (replaces an existing schedule)")
	scheduleAddCmd.Flags().String("title", "", "what you are doing")
	scheduleAddCmd.Flags().String("deadline", "", "latest time you expect to confirm safety")
	scheduleAddCmd.Flags().String("location", "", "where")
	scheduleAddCmd.Flags().String("people", "", "who is with you")
	scheduleAddCmd.Flags().String("notes", "", "anything else rescuers should know")
	_ = scheduleAddCmd.MarkFlagRequired("title")
	_ = scheduleAddCmd.MarkFlagRequired("deadline")

	scheduleCmd.AddCommand(scheduleListCmd, scheduleAddCmd, scheduleDeleteCmd)
	rootCmd.AddCommand(scheduleCmd)
}
