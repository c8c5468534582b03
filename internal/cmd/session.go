package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionRefresh bool

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the cached session key material, deriving it if needed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := currentSession(cmd.Context(), sessionRefresh)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	sessionCmd.Flags().BoolVar(&sessionRefresh, "refresh", false, "Ignore the cached session and fetch the home page again")
	rootCmd.AddCommand(sessionCmd)
}
