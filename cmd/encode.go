package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/vita49/internal/cli/output"
	"firestige.xyz/vita49/pkg/vrt"
)

// HeaderFields is the loosely typed description of a header accepted by
// encode. Enumerations take either a name or a numeric code.
type HeaderFields struct {
	Type  string `mapstructure:"type"`
	CBit  bool   `mapstructure:"cbit"`
	Ind0  bool   `mapstructure:"ind0"`
	Ind1  bool   `mapstructure:"ind1"`
	Ind2  bool   `mapstructure:"ind2"`
	TSI   string `mapstructure:"tsi"`
	TSF   string `mapstructure:"tsf"`
	Count int    `mapstructure:"count"`
	Size  int    `mapstructure:"size"`
}

// Build converts the fields into a Header, rejecting any value the header
// cannot represent.
func (f HeaderFields) Build() (vrt.Header, error) {
	h := vrt.NewHeader()

	if f.Type != "" {
		t, err := vrt.ParsePacketType(f.Type)
		if err != nil {
			return vrt.Header{}, err
		}
		if err := h.SetPacketType(t); err != nil {
			return vrt.Header{}, err
		}
	}
	if f.TSI != "" {
		m, err := vrt.ParseIntegerTimestampMode(f.TSI)
		if err != nil {
			return vrt.Header{}, err
		}
		if err := h.SetTSI(m); err != nil {
			return vrt.Header{}, err
		}
	}
	if f.TSF != "" {
		m, err := vrt.ParseFractionalTimestampMode(f.TSF)
		if err != nil {
			return vrt.Header{}, err
		}
		if err := h.SetTSF(m); err != nil {
			return vrt.Header{}, err
		}
	}

	if f.Count < 0 || f.Count > 0xFF {
		return vrt.Header{}, fmt.Errorf("%w: packet_count %d (max %d)", vrt.ErrOutOfRange, f.Count, vrt.MaxPacketCount)
	}
	if err := h.SetPacketCount(uint8(f.Count)); err != nil {
		return vrt.Header{}, err
	}
	if f.Size < 0 || f.Size > 0xFFFF {
		return vrt.Header{}, fmt.Errorf("%w: packet_size %d (max %d)", vrt.ErrOutOfRange, f.Size, 0xFFFF)
	}
	h.SetPacketSize(uint16(f.Size))

	h.SetCBit(f.CBit)
	h.SetIndicator0(f.Ind0)
	h.SetIndicator1(f.Ind1)
	h.SetIndicator2(f.Ind2)
	return h, nil
}

// decodeFields maps a raw field map onto HeaderFields. Strings such as "1",
// "true" or "0x10" are converted; unknown keys are rejected.
func decodeFields(raw map[string]interface{}) (HeaderFields, error) {
	var f HeaderFields
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &f,
	})
	if err != nil {
		return f, err
	}
	if err := decoder.Decode(raw); err != nil {
		return f, fmt.Errorf("invalid header fields: %w", err)
	}
	return f, nil
}

var (
	encodeFrom string
	encodeSets []string
	encodeFlag = struct {
		Type, TSI, TSF   string
		CBit             bool
		Ind0, Ind1, Ind2 bool
		Count, Size      int
	}{}
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a VRT header from flags or a field file",
	Long: `Build a VRT header and print its 4-byte wire form.

Fields are merged in order: --from file, then explicit flags, then --set
key=value pairs. Keys: type, cbit, ind0, ind1, ind2, tsi, tsf, count, size.
Enumerations accept names (DataSID, GPS, FreeRunning) or numeric codes.`,
	Example: `  vrt encode --type DataSID --cbit --tsi UTC --tsf RealTime --size 256
  vrt encode --from header.yaml --set count=7
  vrt encode --set type=4 --set size=0x20 -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := collectFields(cmd)
		if err != nil {
			return err
		}
		p, err := newPrinter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return runEncode(raw, p)
	},
}

func init() {
	flags := encodeCmd.Flags()
	flags.StringVar(&encodeFrom, "from", "", "YAML file holding header fields")
	flags.StringArrayVar(&encodeSets, "set", nil, "field assignment key=value (repeatable)")
	flags.StringVar(&encodeFlag.Type, "type", "", "packet type name or code (0-7)")
	flags.BoolVar(&encodeFlag.CBit, "cbit", false, "set the C bit")
	flags.BoolVar(&encodeFlag.Ind0, "ind0", false, "set indicator bit 0")
	flags.BoolVar(&encodeFlag.Ind1, "ind1", false, "set indicator bit 1")
	flags.BoolVar(&encodeFlag.Ind2, "ind2", false, "set indicator bit 2")
	flags.StringVar(&encodeFlag.TSI, "tsi", "", "integer timestamp mode name or code (0-3)")
	flags.StringVar(&encodeFlag.TSF, "tsf", "", "fractional timestamp mode name or code (0-3)")
	flags.IntVar(&encodeFlag.Count, "count", 0, "packet count (0-15)")
	flags.IntVar(&encodeFlag.Size, "size", 0, "packet size in 32-bit words (0-65535)")
}

func collectFields(cmd *cobra.Command) (map[string]interface{}, error) {
	raw := make(map[string]interface{})

	if encodeFrom != "" {
		data, err := os.ReadFile(encodeFrom)
		if err != nil {
			return nil, fmt.Errorf("failed to read field file: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse field file %s: %w", encodeFrom, err)
		}
		if raw == nil {
			raw = make(map[string]interface{})
		}
	}

	flags := cmd.Flags()
	overrides := map[string]interface{}{
		"type":  encodeFlag.Type,
		"cbit":  encodeFlag.CBit,
		"ind0":  encodeFlag.Ind0,
		"ind1":  encodeFlag.Ind1,
		"ind2":  encodeFlag.Ind2,
		"tsi":   encodeFlag.TSI,
		"tsf":   encodeFlag.TSF,
		"count": encodeFlag.Count,
		"size":  encodeFlag.Size,
	}
	for name, value := range overrides {
		if flags.Changed(name) {
			raw[name] = value
		}
	}

	if err := applySets(raw, encodeSets); err != nil {
		return nil, err
	}
	return raw, nil
}

func applySets(raw map[string]interface{}, sets []string) error {
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		raw[key] = strings.TrimSpace(value)
	}
	return nil
}

func runEncode(raw map[string]interface{}, p *output.Printer) error {
	fields, err := decodeFields(raw)
	if err != nil {
		return err
	}
	h, err := fields.Build()
	if err != nil {
		return err
	}
	return p.Print(newHeaderView(h))
}
