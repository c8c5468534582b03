package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyupark/xctid/internal/codec"
	"github.com/kyupark/xctid/internal/config"
	"github.com/kyupark/xctid/internal/token"
)

var (
	decodeMethod       string
	decodePath         string
	decodeAnimationKey string
)

var decodeCmd = &cobra.Command{
	Use:   "decode TOKEN",
	Short: "Unmask a transaction id and print its fields",
	Long: `Unmask a transaction id and print its fields. With --method and --path
the hash is checked against the animation key (flag or cached session).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := token.Decode(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "mask:       0x%02x\n", p.Mask)
		fmt.Fprintf(w, "key:        %s (%d bytes)\n", codec.EncodeBase64(p.KeyBytes), len(p.KeyBytes))
		fmt.Fprintf(w, "timestamp:  %d (%s)\n", p.Timestamp, p.Time().UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "hash:       %s\n", hex.EncodeToString(p.Hash[:]))
		fmt.Fprintf(w, "marker:     %d\n", p.Marker)
		fmt.Fprintf(w, "plaintext:  %s\n", hex.EncodeToString(p.Plaintext()))

		if decodeMethod == "" || decodePath == "" {
			return nil
		}
		animationKey := decodeAnimationKey
		if animationKey == "" {
			if s := config.LoadState().Session; s != nil {
				animationKey = s.AnimationKey
			}
		}
		if animationKey == "" {
			return fmt.Errorf("no animation key: pass --animation-key or run 'xctid session'")
		}
		ok := p.Verify(strings.ToUpper(decodeMethod), decodePath, animationKey)
		fmt.Fprintf(w, "verified:   %t\n", ok)
		return nil
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeMethod, "method", "", "Request method to verify against")
	decodeCmd.Flags().StringVar(&decodePath, "path", "", "Request path to verify against")
	decodeCmd.Flags().StringVar(&decodeAnimationKey, "animation-key", "", "Animation key (default: cached session)")
	rootCmd.AddCommand(decodeCmd)
}
