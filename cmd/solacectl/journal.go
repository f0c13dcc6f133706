package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	journalCmd := &cobra.Command{Use: "journal", Short: "Journal operations"}

	var userFlag string
	journalCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Canonical user ID (required)")
	_ = journalCmd.MarkPersistentFlagRequired("user")

	datesCmd := &cobra.Command{
		Use:   "dates",
		Short: "List known journal dates for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("/api/users/%s/journal/dates", userFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	journalCmd.AddCommand(datesCmd)

	getCmd := &cobra.Command{
		Use:   "get DATE",
		Short: "Get one date's journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("/api/users/%s/journal/%s", userFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	journalCmd.AddCommand(getCmd)

	overviewCmd := &cobra.Command{
		Use:   "overview",
		Short: "Per-date message counts and summary presence",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("/api/users/%s/journal", userFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	journalCmd.AddCommand(overviewCmd)

	rootCmd.AddCommand(journalCmd)
}
