package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Davincible/shamir-accel/internal/validation"
	"github.com/Davincible/shamir-accel/pkg/crypto/shamir"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
	"github.com/Davincible/shamir-accel/pkg/storage"
)

// SplitResult is the JSON shape of the split command.
type SplitResult struct {
	Field     string      `json:"field"`
	Threshold int         `json:"threshold"`
	Total     int         `json:"total"`
	Shares    []sss.Share `json:"shares"`
	SavedTo   string      `json:"saved_to,omitempty"`
}

func newSplitCommand(a *app) *cobra.Command {
	var (
		fieldName string
		secretStr string
		threshold int
		parts     int
		savePath  string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a field element into shares generated on the device",
		Long: `Split a secret field element into n shares, any k of which recover it.
The polynomial's coefficients are drawn from crypto/rand and each share
f(1)..f(n) is evaluated by the accelerator. The threshold is limited to 4 by
the device's share registers.

The secret is read without echo when --secret is not given.`,
		Example: `  # 3-of-5 over GF(2^16)
  shamir-accel split --field gf16 --secret BEEF --threshold 3 --shares 5

  # Save the shares to an encrypted file
  shamir-accel split --threshold 2 --shares 3 --save shares.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := a.field(fieldName)
			if err != nil {
				return err
			}
			if err := validation.ValidateSplitParams(parts, threshold, field); err != nil {
				return err
			}

			if secretStr == "" {
				secretStr, err = a.readHidden(cmd, "Enter secret (hex): ")
				if err != nil {
					return err
				}
			}
			secret, err := validation.ParseElement(secretStr, field)
			if err != nil {
				return fmt.Errorf("invalid secret: %w", err)
			}

			shares, err := shamir.Split(a.ctx(cmd), a.driver, secret, shamir.Config{
				Field:     field,
				Parts:     parts,
				Threshold: threshold,
			})
			if err != nil {
				return fmt.Errorf("failed to split secret: %w", err)
			}

			result := SplitResult{
				Field:     field.String(),
				Threshold: threshold,
				Total:     parts,
				Shares:    shares,
			}

			if savePath != "" {
				pass, err := a.readNewPassphrase(cmd)
				if err != nil {
					return err
				}
				file := storage.NewShareFile(savePath, a.cfg.Storage.Iterations)
				err = file.Save(&storage.ShareSet{
					Kind:      storage.KindField,
					Field:     field.String(),
					Threshold: threshold,
					Shares:    shares,
				}, pass)
				clear(pass)
				if err != nil {
					return fmt.Errorf("failed to save shares: %w", err)
				}
				result.SavedTo = savePath
			}

			out := cmd.OutOrStdout()
			if a.json {
				return writeJSON(out, result)
			}

			fmt.Fprintln(out)
			titleColor.Fprintf(out, "=== %d-of-%d SHARES in %s ===\n", threshold, parts, field)
			printShares(out, field, shares)
			fmt.Fprintf(out, "\nAny %d shares reconstruct the secret.\n", threshold)
			if result.SavedTo != "" {
				okColor.Fprintf(out, "✓ Shares saved to %s\n", result.SavedTo)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&fieldName, "field", "f", "", "Field: gf8, gf16 or gf32 (default from config)")
	cmd.Flags().StringVar(&secretStr, "secret", "", "Secret element in hex (prompted if omitted)")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 2, "Shares needed to reconstruct (2-4)")
	cmd.Flags().IntVarP(&parts, "shares", "n", 3, "Total shares to create")
	cmd.Flags().StringVar(&savePath, "save", "", "Write shares to an encrypted file")

	return cmd
}
