package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Davincible/shamir-accel/internal/validation"
	"github.com/Davincible/shamir-accel/pkg/crypto/shamir"
)

func newNewShareCommand(a *app) *cobra.Command {
	var (
		fieldName string
		shareStrs []string
		xStr      string
	)

	cmd := &cobra.Command{
		Use:   "newshare",
		Short: "Derive a replacement share at a new x from k existing shares",
		Long: `Interpolate the share polynomial at a fresh x without recovering the
secret. Pass exactly threshold shares; with fewer the result lies on a
different polynomial.`,
		Example: `  shamir-accel newshare --share 1:47 --share 2:48 --x 3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := a.field(fieldName)
			if err != nil {
				return err
			}
			shares, err := parseShares(shareStrs, field)
			if err != nil {
				return err
			}
			x, err := validation.ParseElement(xStr, field)
			if err != nil {
				return fmt.Errorf("invalid x: %w", err)
			}

			share, err := shamir.NewShare(field, shares, x)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.json {
				return writeJSON(out, share)
			}

			okColor.Fprintf(out, "✓ New share: %s:%s\n", hexElem(field, share.X), hexElem(field, share.Y))
			printShares(out, field, append(shares, share))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fieldName, "field", "f", "", "Field: gf8, gf16 or gf32 (default from config)")
	cmd.Flags().StringArrayVarP(&shareStrs, "share", "s", nil, "Existing share as x:y in hex (repeatable)")
	cmd.Flags().StringVarP(&xStr, "x", "x", "", "x coordinate of the new share in hex")
	_ = cmd.MarkFlagRequired("share")
	_ = cmd.MarkFlagRequired("x")

	return cmd
}
