package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tokenizer-hi/bpe/envconfig"
	"github.com/tokenizer-hi/bpe/logutil"
	"github.com/tokenizer-hi/bpe/tokenizer"
	"github.com/tokenizer-hi/bpe/version"
)

// sampleText is encoded and decoded after training as a self check.
const sampleText = "भारत एक देश है"

var errRoundTrip = errors.New("round trip mismatch")

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bpe",
		Short:   "Byte-level BPE tokenizer",
		Version: version.Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			logutil.SetDefault(cmd.ErrOrStderr(), envconfig.LogLevel())
		},
	}

	cobra.EnableCommandSorting = false

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Learn merge rules from a corpus",
		Args:  cobra.NoArgs,
		RunE:  TrainHandler,
	}

	trainCmd.Flags().String("corpus", "", "Corpus directory (default $BPE_CORPUS_DIR)")
	trainCmd.Flags().Int("limit", 0, "Maximum number of documents, 0 for all (default $BPE_CORPUS_LIMIT)")
	trainCmd.Flags().Int("readers", 0, "Number of files read concurrently (default $BPE_CORPUS_READERS)")
	trainCmd.Flags().Int("merges", 0, "Maximum number of merge rounds (default $BPE_NUM_MERGES)")
	trainCmd.Flags().StringP("output", "o", "", "Where to write the tokenizer (default $BPE_OUTPUT)")
	trainCmd.Flags().StringSlice("special", nil, "Reserved tokens (default $BPE_SPECIAL_TOKENS)")
	trainCmd.Flags().StringSlice("ext", nil, "Only read files with these extensions (default $BPE_CORPUS_EXTENSIONS)")

	encodeCmd := &cobra.Command{
		Use:   "encode TEXT...",
		Short: "Convert text to token IDs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  EncodeHandler,
	}

	encodeCmd.Flags().Bool("special", false, "Emit special token spellings as their IDs")

	decodeCmd := &cobra.Command{
		Use:   "decode ID...",
		Short: "Convert token IDs to text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  DecodeHandler,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show vocabulary statistics and learned merges",
		Args:  cobra.NoArgs,
		RunE:  InspectHandler,
	}

	inspectCmd.Flags().Int("limit", 20, "Number of merges to show, 0 for all")

	pairsCmd := &cobra.Command{
		Use:   "pairs",
		Short: "Show the most frequent adjacent byte pairs of a corpus",
		Args:  cobra.NoArgs,
		RunE:  PairsHandler,
	}

	pairsCmd.Flags().String("corpus", "", "Corpus directory (default $BPE_CORPUS_DIR)")
	pairsCmd.Flags().Int("limit", 0, "Maximum number of documents, 0 for all (default $BPE_CORPUS_LIMIT)")
	pairsCmd.Flags().Int("top", 20, "Number of pairs to show")
	pairsCmd.Flags().StringSlice("ext", nil, "Only read files with these extensions (default $BPE_CORPUS_EXTENSIONS)")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  EnvHandler,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print an example configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), envconfig.GenerateExampleConfig())
			return err
		},
	}

	for _, cmd := range []*cobra.Command{encodeCmd, decodeCmd, inspectCmd} {
		cmd.Flags().StringP("model", "m", "", "Tokenizer file (default $BPE_OUTPUT)")
	}

	rootCmd.AddCommand(
		trainCmd,
		encodeCmd,
		decodeCmd,
		inspectCmd,
		pairsCmd,
		envCmd,
		configCmd,
	)

	return rootCmd
}

// stringFlag returns the flag value when it was set on the command line and
// fallback otherwise.
func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		if s, err := cmd.Flags().GetString(name); err == nil {
			return s
		}
	}
	return fallback
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		if n, err := cmd.Flags().GetInt(name); err == nil {
			return n
		}
	}
	return fallback
}

// listFlag is stringFlag for comma separated lists. Empty fields are
// dropped.
func listFlag(cmd *cobra.Command, name string, fallback []string) []string {
	if !cmd.Flags().Changed(name) {
		return fallback
	}

	values, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		return fallback
	}

	var list []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func loadModel(cmd *cobra.Command) (*tokenizer.BytePairEncoding, error) {
	return tokenizer.Load(stringFlag(cmd, "model", envconfig.Output))
}

func EncodeHandler(cmd *cobra.Command, args []string) error {
	bpe, err := loadModel(cmd)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")

	var ids []int32
	if special, _ := cmd.Flags().GetBool("special"); special {
		ids = bpe.EncodeSpecial(text)
	} else {
		ids = bpe.Encode(text)
	}

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.Itoa(int(id))
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(fields, " "))
	return nil
}

func DecodeHandler(cmd *cobra.Command, args []string) error {
	bpe, err := loadModel(cmd)
	if err != nil {
		return err
	}

	ids := make([]int32, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: %q", tokenizer.ErrInvalidTokenID, arg)
		}
		ids[i] = int32(id)
	}

	text, err := bpe.Decode(ids)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func EnvHandler(cmd *cobra.Command, args []string) error {
	vars := envconfig.AsMap()
	values := envconfig.Values()

	var data [][]string
	for _, name := range envconfig.Names() {
		data = append(data, []string{name, values[name], vars[name].Description})
	}

	table := newTable(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}
