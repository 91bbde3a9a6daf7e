package tokenizer

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/tokenizer-hi/bpe/logutil"
)

type TextProcessor interface {
	Encode(string) []int32
	Decode([]int32) (string, error)
	Vocabulary() *Vocabulary
}

// BytePairEncoding maps text to IDs by replaying merge rules over the byte
// alphabet. It is read-only and safe for concurrent use.
type BytePairEncoding struct {
	vocab  *Vocabulary
	merges []Pair
}

var _ TextProcessor = (*BytePairEncoding)(nil)

func NewBytePairEncoding(vocab *Vocabulary, merges []Pair) *BytePairEncoding {
	return &BytePairEncoding{vocab: vocab, merges: slices.Clone(merges)}
}

func (bpe *BytePairEncoding) Vocabulary() *Vocabulary {
	return bpe.vocab
}

// Merges returns the merge rules in training order.
func (bpe *BytePairEncoding) Merges() []Pair {
	return slices.Clone(bpe.merges)
}

// Encode converts text to token IDs. Special token spellings are treated as
// plain text. It never fails: a symbol missing from the vocabulary becomes
// the unknown token.
func (bpe *BytePairEncoding) Encode(s string) []int32 {
	ids := bpe.encode(s, nil)
	logutil.Trace("encoded", "string", s, "ids", ids)
	return ids
}

// EncodeSpecial is Encode except that special token spellings found in s
// are emitted as their IDs.
func (bpe *BytePairEncoding) EncodeSpecial(s string) []int32 {
	var ids []int32
	for _, frag := range splitSpecialTokens(s, bpe.vocab) {
		if len(frag.ids) > 0 {
			ids = append(ids, frag.ids...)
			continue
		}

		ids = bpe.encode(frag.value, ids)
	}

	logutil.Trace("encoded", "string", s, "ids", ids, "special", true)
	return ids
}

func (bpe *BytePairEncoding) encode(s string, ids []int32) []int32 {
	symbols := TextToSymbols(s)
	for _, merge := range bpe.merges {
		if len(symbols) < 2 {
			break
		}
		symbols = applyMerge(symbols, merge)
	}

	if ids == nil {
		ids = make([]int32, 0, len(symbols))
	}

	for _, symbol := range symbols {
		id := bpe.vocab.Encode(symbol)
		if id < 0 {
			id = bpe.vocab.Unknown()
			logutil.Trace("symbol not in vocabulary", "symbol", symbol, "id", id)
			if id < 0 {
				slog.Warn("dropping symbol missing from vocabulary", "symbol", symbol)
				continue
			}
		}

		ids = append(ids, id)
	}

	return ids
}

type lazyIdsString struct {
	ids []int32
}

func (l lazyIdsString) LogValue() slog.Value {
	return slog.AnyValue(fmt.Sprint(l.ids))
}

// Decode converts token IDs back to text. Special tokens carry no bytes and
// are dropped; invalid UTF-8 is replaced with U+FFFD. An ID outside the
// vocabulary is an error.
func (bpe *BytePairEncoding) Decode(ids []int32) (string, error) {
	var b []byte
	for _, id := range ids {
		symbol, err := bpe.vocab.Decode(id)
		if err != nil {
			return "", err
		}

		if bpe.vocab.IsSpecial(symbol) {
			continue
		}

		var ok bool
		if b, ok = symbolBytes(b, symbol); !ok {
			return "", fmt.Errorf("%w: token %d %q is outside the byte alphabet", ErrCorruptVocabulary, id, symbol)
		}
	}

	s := DecodeBytes(b)
	logutil.Trace("decoded", "string", s, "from", lazyIdsString{ids: ids})
	return s, nil
}
