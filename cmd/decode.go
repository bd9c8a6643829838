package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"firestige.xyz/vita49/internal/cli/output"
	"firestige.xyz/vita49/internal/log"
	"firestige.xyz/vita49/pkg/vrt"
)

var decodeCmd = &cobra.Command{
	Use:   "decode HEX...",
	Short: "Decode VRT header words given as hex",
	Long: `Decode one VRT header per argument. Only the first 4 bytes are read;
anything after them is packet body and is ignored.

Hex may contain spaces or ':' separators and may carry a 0x prefix.`,
	Example: `  vrt decode 1a701234
  vrt decode "1A 70 08 00" 0x40010004
  vrt decode -o json 10:00:00:07`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return runDecode(args, p)
	},
}

// runDecode decodes each input and prints every result, failures included.
// It returns an error when at least one input failed.
func runDecode(inputs []string, p *output.Printer) error {
	views := make(HeaderList, 0, len(inputs))
	failed := 0
	for _, in := range inputs {
		v, err := decodeHex(in)
		if err != nil {
			failed++
			log.GetLogger().WithField("input", in).WithError(err).Debug("decode failed")
			views = append(views, HeaderView{Input: in, Error: err.Error()})
			continue
		}
		views = append(views, v)
	}

	var err error
	if len(views) == 1 && failed == 0 {
		err = p.Print(views[0])
	} else {
		err = p.Print(views)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed to decode", failed, len(inputs))
	}
	return nil
}

func decodeHex(in string) (HeaderView, error) {
	b, err := parseHex(in)
	if err != nil {
		return HeaderView{}, err
	}
	h, err := vrt.Decode(b)
	if err != nil {
		return HeaderView{}, err
	}
	v := newHeaderView(h)
	v.Input = in
	return v, nil
}

// parseHex accepts "1a701234", "0x1A701234", "1A 70 12 34" and "1a:70:12:34".
func parseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	s = strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return b, nil
}
