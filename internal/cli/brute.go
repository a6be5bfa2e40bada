package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Davincible/shamir-accel/internal/validation"
	"github.com/Davincible/shamir-accel/pkg/driver"
)

// BruteResult is the JSON shape of the brute command.
type BruteResult struct {
	Field  string `json:"field"`
	Secret string `json:"secret,omitempty"`
	Found  bool   `json:"found"`
	Cycles uint32 `json:"cycles"`
}

func newBruteCommand(a *app) *cobra.Command {
	var (
		fieldName string
		shareStr  string
		a1Str     string
	)

	cmd := &cobra.Command{
		Use:   "brute",
		Short: "Search the field for the secret behind a degree-1 share",
		Long: `Recover the secret a0 of f(x) = a0 + a1*x from one share (x, y) and the
known coefficient a1 by testing every candidate on the device.

Latency is one clock tick per candidate per lane, so GF(2^32) searches can
exceed the driver poll budget; raise driver.max_polls for wide fields.`,
		Example: `  # Find 0x42 from share (1, 0x47) with a1 = 0x05
  shamir-accel brute --field gf8 --share 1:47 --a1 05`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := a.field(fieldName)
			if err != nil {
				return err
			}
			share, err := validation.ParseShare(shareStr, field)
			if err != nil {
				return err
			}
			a1, err := validation.ParseElement(a1Str, field)
			if err != nil {
				return fmt.Errorf("invalid a1: %w", err)
			}

			res, err := a.driver.Brute(a.ctx(cmd), field, share, a1)
			if err != nil && !errors.Is(err, driver.ErrNotFound) {
				return fmt.Errorf("brute-force failed: %w", err)
			}

			result := BruteResult{
				Field:  field.String(),
				Found:  res.Found,
				Cycles: res.Cycles,
			}
			if res.Found {
				result.Secret = hexElem(field, res.Value)
			}

			out := cmd.OutOrStdout()
			if a.json {
				if werr := writeJSON(out, result); werr != nil {
					return werr
				}
			} else if res.Found {
				okColor.Fprintf(out, "✓ Secret found: %s\n", result.Secret)
				fmt.Fprintf(out, "Cycles: %d\n", res.Cycles)
			} else {
				failColor.Fprintf(out, "✗ No candidate in %s matches\n", field)
				fmt.Fprintf(out, "Cycles: %d\n", res.Cycles)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&fieldName, "field", "f", "", "Field: gf8, gf16 or gf32 (default from config)")
	cmd.Flags().StringVarP(&shareStr, "share", "s", "", "Share as x:y in hex")
	cmd.Flags().StringVar(&a1Str, "a1", "", "Known linear coefficient in hex")
	_ = cmd.MarkFlagRequired("share")
	_ = cmd.MarkFlagRequired("a1")

	return cmd
}
