package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var userFlag, scopeFlag string
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear persisted state by scope (all, ai, user)",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{}
			if userFlag != "" {
				payload["userId"] = userFlag
			}
			if scopeFlag != "" {
				payload["resetType"] = scopeFlag
			}
			data, err := doJSON("POST", "/api/reset", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	resetCmd.Flags().StringVarP(&userFlag, "user", "u", "", "Canonical user ID (defaults to the server sentinel)")
	resetCmd.Flags().StringVarP(&scopeFlag, "scope", "s", "", "Reset scope: all, ai, or user (defaults to all)")

	rootCmd.AddCommand(resetCmd)
}
