package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	identityCmd := &cobra.Command{Use: "identity", Short: "Identity resolution"}

	resolveCmd := &cobra.Command{
		Use:   "resolve RAW_ID",
		Short: "Resolve a raw identifier to its canonical user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doJSON("POST", "/api/identity/resolve", map[string]string{"rawId": args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	identityCmd.AddCommand(resolveCmd)

	rootCmd.AddCommand(identityCmd)
}
