package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	personaCmd := &cobra.Command{Use: "persona", Short: "AI persona operations"}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the current AI persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/persona")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	personaCmd.AddCommand(getCmd)

	setCmd := &cobra.Command{
		Use:   "set JSON",
		Short: "Replace the AI persona with the given JSON record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(args[0]), &payload); err != nil {
				return fmt.Errorf("invalid persona json: %w", err)
			}
			if _, err := doJSON("PUT", "/api/persona", payload); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "ok")
			return nil
		},
	}
	personaCmd.AddCommand(setCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Forget the AI persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := doDelete("/api/persona"); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "ok")
			return nil
		},
	}
	personaCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(personaCmd)
}
