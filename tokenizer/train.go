package tokenizer

import (
	"context"
	"log/slog"

	"github.com/tokenizer-hi/bpe/logutil"
)

// MergeEvent describes one accepted training round.
type MergeEvent struct {
	Round int
	Pair  Pair
	Count int
	ID    int32

	// Added is false when the merged symbol was already in the vocabulary
	// and ID refers to the existing entry.
	Added bool
}

// Trainer learns merge rules from a corpus. It is either running, with
// the next round to perform, or done. Rounds are performed by Step or Run;
// nothing learned is ever undone or reordered.
type Trainer struct {
	vocab     *Vocabulary
	corpus    [][]string
	merges    []Pair
	numMerges int
	round     int
	done      bool

	// OnMerge, when set, is called after every accepted round.
	OnMerge func(MergeEvent)
}

// NewTrainer converts texts to base symbol sequences and prepares at most
// numMerges rounds over them.
func NewTrainer(vocab *Vocabulary, texts []string, numMerges int) *Trainer {
	corpus := make([][]string, len(texts))
	for i, text := range texts {
		corpus[i] = TextToSymbols(text)
	}

	return &Trainer{
		vocab:     vocab,
		corpus:    corpus,
		numMerges: max(numMerges, 0),
		done:      numMerges <= 0,
	}
}

// Step performs one round and reports whether training can continue.
func (t *Trainer) Step() bool {
	if t.done {
		return false
	}

	counts := CountPairs(t.corpus)
	best, count, ok := counts.Best()
	if !ok {
		slog.Debug("no pairs left to merge", "round", t.round)
		t.finish()
		return false
	}

	if logutil.Enabled(logutil.LevelTrace) {
		logutil.Trace("candidate pairs", "round", t.round, "pairs", counts.Len(), "top", counts.Top(5))
	}

	t.corpus = ApplyMerge(best, t.corpus)

	id, added := t.vocab.Add(best.Merged())
	if !added {
		slog.Warn("merged symbol already in vocabulary", "pair", best, "id", id)
	}
	t.merges = append(t.merges, best)

	slog.Debug("merge", "round", t.round, "pair", best, "count", count, "id", id)
	if t.OnMerge != nil {
		t.OnMerge(MergeEvent{Round: t.round, Pair: best, Count: count, ID: id, Added: added})
	}

	t.round++
	if t.round >= t.numMerges {
		t.finish()
	}

	return !t.done
}

// Run performs rounds until training is done or ctx is cancelled. A
// cancelled run keeps every round completed so far.
func (t *Trainer) Run(ctx context.Context) error {
	for !t.done {
		if err := ctx.Err(); err != nil {
			return err
		}

		t.Step()
	}

	return nil
}

func (t *Trainer) finish() {
	t.done = true
	t.corpus = nil
}

func (t *Trainer) Done() bool {
	return t.done
}

// Round is the number of merges learned so far.
func (t *Trainer) Round() int {
	return t.round
}

func (t *Trainer) Merges() []Pair {
	return t.merges
}

func (t *Trainer) Vocabulary() *Vocabulary {
	return t.vocab
}

// BytePairEncoding returns an encoder over the rules learned so far.
func (t *Trainer) BytePairEncoding() *BytePairEncoding {
	return NewBytePairEncoding(t.vocab, t.merges)
}

// TrainOptions configures Train.
type TrainOptions struct {
	// NumMerges caps the number of rounds.
	NumMerges int

	// Specials overrides DefaultSpecials.
	Specials []string

	OnMerge func(MergeEvent)
}

// Train learns a tokenizer from texts.
func Train(ctx context.Context, texts []string, opts TrainOptions) (*BytePairEncoding, error) {
	t := NewTrainer(NewVocabulary(opts.Specials...), texts, opts.NumMerges)
	t.OnMerge = opts.OnMerge

	slog.Info("training", "documents", len(texts), "merges", opts.NumMerges)
	if err := t.Run(ctx); err != nil {
		return nil, err
	}

	slog.Info("training complete", "merges", t.Round(), "vocabulary", t.vocab.Size())
	return t.BytePairEncoding(), nil
}
