package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tokenizer-hi/bpe/corpus"
	"github.com/tokenizer-hi/bpe/envconfig"
	"github.com/tokenizer-hi/bpe/format"
	"github.com/tokenizer-hi/bpe/progress"
	"github.com/tokenizer-hi/bpe/tokenizer"
)

func TrainHandler(cmd *cobra.Command, args []string) error {
	dir := stringFlag(cmd, "corpus", envconfig.CorpusDir)
	numMerges := intFlag(cmd, "merges", envconfig.NumMerges)
	output := stringFlag(cmd, "output", envconfig.Output)
	opts := corpus.Options{
		Limit:      intFlag(cmd, "limit", envconfig.CorpusLimit),
		Readers:    intFlag(cmd, "readers", envconfig.CorpusReaders),
		Extensions: listFlag(cmd, "ext", envconfig.CorpusExtensions),
	}

	specials := listFlag(cmd, "special", envconfig.SpecialTokens)

	if numMerges < 0 {
		return fmt.Errorf("merges must be zero or greater, got %d", numMerges)
	}

	p := progress.NewProgress(cmd.ErrOrStderr())

	spinner := progress.NewSpinner(fmt.Sprintf("loading corpus from %s", dir))
	p.Add(spinner)

	docs, err := corpus.Load(cmd.Context(), dir, opts)
	if err != nil {
		p.StopAndClear()
		return err
	}

	var size int64
	for _, doc := range docs {
		size += int64(len(doc))
	}

	spinner.Stop()
	spinner.SetMessage(fmt.Sprintf("loaded %d documents (%s)", len(docs), format.HumanBytes(size)))
	if len(docs) == 0 {
		slog.Warn("corpus is empty", "dir", dir)
	}

	bar := progress.NewBar("merging", int64(numMerges))
	p.Add(bar)

	trainer := tokenizer.NewTrainer(tokenizer.NewVocabulary(specials...), docs, numMerges)
	trainer.OnMerge = func(e tokenizer.MergeEvent) {
		bar.Set(int64(e.Round + 1))
	}

	err = trainer.Run(cmd.Context())
	bar.Finish()
	p.Stop()
	if err != nil {
		return err
	}

	bpe := trainer.BytePairEncoding()
	if err := bpe.Save(output); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "learned %d merges\n", trainer.Round())
	fmt.Fprintf(out, "vocabulary size: %d\n", bpe.Vocabulary().Size())
	fmt.Fprintf(out, "saved %s\n", output)

	return selfCheck(out, bpe, sampleText)
}

// selfCheck encodes text, prints the result and fails unless decoding
// restores text exactly.
func selfCheck(w io.Writer, tp tokenizer.TextProcessor, text string) error {
	ids := tp.Encode(text)
	decoded, err := tp.Decode(ids)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "sample: %s\n", text)
	fmt.Fprintf(w, "tokens: %v\n", ids)
	fmt.Fprintf(w, "compression: %s (%d bytes, %d tokens)\n", format.Ratio(len(text), len(ids)), len(text), len(ids))

	if decoded != text {
		return fmt.Errorf("%w: %q decoded as %q", errRoundTrip, text, decoded)
	}

	fmt.Fprintln(w, "round trip: ok")
	return nil
}
