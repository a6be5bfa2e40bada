package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Davincible/shamir-accel/internal/validation"
)

// GenerateResult is the JSON shape of the generate command.
type GenerateResult struct {
	Field      string   `json:"field"`
	Polynomial []string `json:"polynomial"`
	X          string   `json:"x"`
	Y          string   `json:"y"`
	Cycles     uint32   `json:"cycles"`
}

func newGenerateCommand(a *app) *cobra.Command {
	var (
		fieldName string
		coeffsStr string
		xStr      string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Evaluate a share polynomial at one point on the device",
		Example: `  # f(x) = 0x42 + 0x05*x at x = 1
  shamir-accel generate --coeffs 42,05 --x 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := a.field(fieldName)
			if err != nil {
				return err
			}
			coeffs, err := validation.ParseElements(coeffsStr, field)
			if err != nil {
				return fmt.Errorf("invalid coefficients: %w", err)
			}
			x, err := validation.ParseElement(xStr, field)
			if err != nil {
				return fmt.Errorf("invalid x: %w", err)
			}

			res, err := a.driver.GenerateShare(a.ctx(cmd), field, coeffs, x)
			if err != nil {
				return fmt.Errorf("failed to generate share: %w", err)
			}

			out := cmd.OutOrStdout()
			if a.json {
				poly := make([]string, len(coeffs))
				for i, c := range coeffs {
					poly[i] = hexElem(field, c)
				}
				return writeJSON(out, GenerateResult{
					Field:      field.String(),
					Polynomial: poly,
					X:          hexElem(field, x),
					Y:          hexElem(field, res.Value),
					Cycles:     res.Cycles,
				})
			}

			fmt.Fprintln(out, polynomialString(field, coeffs))
			okColor.Fprintf(out, "f(%s) = %s\n", hexElem(field, x), hexElem(field, res.Value))
			fmt.Fprintf(out, "Cycles: %d\n", res.Cycles)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fieldName, "field", "f", "", "Field: gf8, gf16 or gf32 (default from config)")
	cmd.Flags().StringVarP(&coeffsStr, "coeffs", "c", "", "Comma-separated coefficients a0..a3 in hex")
	cmd.Flags().StringVarP(&xStr, "x", "x", "", "Evaluation point in hex")
	_ = cmd.MarkFlagRequired("coeffs")
	_ = cmd.MarkFlagRequired("x")

	return cmd
}
