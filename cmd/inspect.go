package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tokenizer-hi/bpe/corpus"
	"github.com/tokenizer-hi/bpe/envconfig"
	"github.com/tokenizer-hi/bpe/format"
	"github.com/tokenizer-hi/bpe/tokenizer"
)

func InspectHandler(cmd *cobra.Command, args []string) error {
	bpe, err := loadModel(cmd)
	if err != nil {
		return err
	}

	vocab := bpe.Vocabulary()
	merges := bpe.Merges()
	out := cmd.OutOrStdout()

	specials := make([]string, 0, len(vocab.Specials()))
	for _, special := range vocab.Specials() {
		specials = append(specials, fmt.Sprintf("%s=%d", special, vocab.Encode(special)))
	}

	stats := newTable(out)
	stats.AppendBulk([][]string{
		{"vocabulary:", format.HumanNumber(uint64(vocab.Size()))},
		{"merges:", format.HumanNumber(uint64(len(merges)))},
		{"specials:", strings.Join(specials, " ")},
	})
	stats.Render()
	fmt.Fprintln(out)

	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && limit < len(merges) {
		merges = merges[:limit]
	}

	var data [][]string
	for i, merge := range merges {
		id := vocab.Encode(merge.Merged())
		text, err := bpe.Decode([]int32{id})
		if err != nil {
			return err
		}

		data = append(data, []string{strconv.Itoa(i), merge.Left, merge.Right, strconv.Itoa(int(id)), strconv.Quote(text)})
	}

	table := newTable(out)
	table.SetHeader([]string{"RANK", "LEFT", "RIGHT", "ID", "TEXT"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

func PairsHandler(cmd *cobra.Command, args []string) error {
	dir := stringFlag(cmd, "corpus", envconfig.CorpusDir)
	docs, err := corpus.Load(cmd.Context(), dir, corpus.Options{
		Limit:      intFlag(cmd, "limit", envconfig.CorpusLimit),
		Readers:    envconfig.CorpusReaders,
		Extensions: listFlag(cmd, "ext", envconfig.CorpusExtensions),
	})
	if err != nil {
		return err
	}

	seqs := make([][]string, len(docs))
	for i, doc := range docs {
		seqs[i] = tokenizer.TextToSymbols(doc)
	}

	top, _ := cmd.Flags().GetInt("top")

	var data [][]string
	for _, pc := range tokenizer.CountPairs(seqs).Top(top) {
		data = append(data, []string{pc.Left, pc.Right, strconv.Quote(symbolsText(pc.Merged())), strconv.Itoa(pc.Count)})
	}

	table := newTable(cmd.OutOrStdout())
	table.SetHeader([]string{"LEFT", "RIGHT", "TEXT", "COUNT"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

// symbolsText renders a run of byte symbols as the text they stand for.
func symbolsText(symbols string) string {
	b := make([]byte, 0, len(symbols))
	for _, r := range symbols {
		if c, ok := tokenizer.SymbolToByte(string(r)); ok {
			b = append(b, c)
		}
	}
	return tokenizer.DecodeBytes(b)
}
