package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Davincible/shamir-accel/internal/validation"
	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
)

var (
	titleColor = color.New(color.FgYellow, color.Bold)
	okColor    = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed, color.Bold)
	labelColor = color.New(color.FgCyan, color.Bold)
)

// readHidden prompts on stderr and reads one line, without echo when stdin
// is a terminal.
func (a *app) readHidden(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Fallback for non-terminal
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return validation.SanitizeInput(line), nil
}

// readNewPassphrase asks for a passphrase twice.
func (a *app) readNewPassphrase(cmd *cobra.Command) ([]byte, error) {
	pass, err := a.readHidden(cmd, "Enter passphrase for share file: ")
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePassphrase(pass); err != nil {
		return nil, err
	}

	confirm, err := a.readHidden(cmd, "Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	if pass != confirm {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return []byte(pass), nil
}

func (a *app) readPassphrase(cmd *cobra.Command) ([]byte, error) {
	pass, err := a.readHidden(cmd, "Enter passphrase for share file: ")
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePassphrase(pass); err != nil {
		return nil, err
	}
	return []byte(pass), nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// hexElem formats an element zero-padded to the field width.
func hexElem(field gf.Field, v uint32) string {
	return fmt.Sprintf("0x%0*X", int(field.Width()/4), v)
}

func parseShares(inputs []string, field gf.Field) ([]sss.Share, error) {
	shares := make([]sss.Share, 0, len(inputs))
	for _, in := range inputs {
		s, err := validation.ParseShare(in, field)
		if err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, nil
}

func printShares(w io.Writer, field gf.Field, shares []sss.Share) {
	labelColor.Fprintf(w, "%-8s %-12s %-12s\n", "Share", "X", "Y")
	for i, s := range shares {
		fmt.Fprintf(w, "%-8d %-12s %-12s\n", i+1, hexElem(field, s.X), hexElem(field, s.Y))
	}
}

// polynomialString renders f(x) = a0 + a1*x + ... as the device sees it.
func polynomialString(field gf.Field, coeffs []uint32) string {
	var b strings.Builder
	b.WriteString("f(x) = ")
	b.WriteString(hexElem(field, coeffs[0]))
	for i := 1; i < len(coeffs); i++ {
		fmt.Fprintf(&b, " + %s*x", hexElem(field, coeffs[i]))
		if i > 1 {
			fmt.Fprintf(&b, "^%d", i)
		}
	}
	return b.String()
}
