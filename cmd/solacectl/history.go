package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	historyCmd := &cobra.Command{Use: "history", Short: "Conversation history operations"}

	var userFlag string
	historyCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Canonical user ID (required)")
	_ = historyCmd.MarkPersistentFlagRequired("user")

	var limitFlag int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List conversation turns in insertion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/users/%s/history", userFlag)
			if limitFlag > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limitFlag)
			}
			data, err := doGet(path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limitFlag, "limit", "n", 0, "Return only the most recent N turns")
	historyCmd.AddCommand(listCmd)

	var roleFlag string
	appendCmd := &cobra.Command{
		Use:   "append CONTENT",
		Short: "Append one turn to the log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{"role": roleFlag, "content": args[0]}
			if _, err := doJSON("POST", fmt.Sprintf("/api/users/%s/history", userFlag), payload); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "ok")
			return nil
		},
	}
	appendCmd.Flags().StringVarP(&roleFlag, "role", "r", "user", "Turn role: user, assistant, or system")
	historyCmd.AddCommand(appendCmd)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the user's entire conversation log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := doDelete(fmt.Sprintf("/api/users/%s/history", userFlag)); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "ok")
			return nil
		},
	}
	historyCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(historyCmd)
}
