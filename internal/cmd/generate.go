package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyupark/xctid/internal/transaction"
)

var (
	genTimestamp    int64
	genRefresh      bool
	genKey          string
	genAnimationKey string
)

var generateCmd = &cobra.Command{
	Use:   "generate METHOD PATH",
	Short: "Print an x-client-transaction-id for a request",
	Long: `Print the transaction id for METHOD and PATH (path only, no host).

With --key and --animation-key the home page is not fetched at all.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		method, path := strings.ToUpper(args[0]), args[1]

		key, animationKey := genKey, genAnimationKey
		if key == "" || animationKey == "" {
			s, err := currentSession(cmd.Context(), genRefresh)
			if err != nil {
				return err
			}
			key, animationKey = s.Key, s.AnimationKey
		}

		var opts []transaction.IDOption
		if cmd.Flags().Changed("timestamp") {
			opts = append(opts, transaction.WithTimestamp(genTimestamp))
		}

		id, err := transaction.GenerateID(method, path, key, animationKey, opts...)
		if err != nil {
			return err
		}
		log.Debugf("[generate] %s %s", method, path)
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func init() {
	generateCmd.Flags().Int64Var(&genTimestamp, "timestamp", 0, "Seconds since the protocol epoch (default: now)")
	generateCmd.Flags().BoolVar(&genRefresh, "refresh", false, "Derive a fresh session first")
	generateCmd.Flags().StringVar(&genKey, "key", "", "Verification key (skips the home page fetch with --animation-key)")
	generateCmd.Flags().StringVar(&genAnimationKey, "animation-key", "", "Animation key")
	rootCmd.AddCommand(generateCmd)
}
