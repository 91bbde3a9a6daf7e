package tokenizer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trained(t *testing.T, merges int) *BytePairEncoding {
	t.Helper()

	bpe, err := Train(context.Background(), trainingCorpus, TrainOptions{NumMerges: merges})
	require.NoError(t, err)
	return bpe
}

func TestBytePairEncodingRoundTrip(t *testing.T) {
	bpe := trained(t, 60)

	cases := []string{
		"",
		"a",
		"भारत एक देश है",
		"the quick brown fox",
		"unseen words: zebra, quartz & jazz!",
		"tabs\tand\nnewlines\r\n",
		"emoji 🙂 and 中文",
		"\x00\x01\x7f",
		"<unk without closing",
	}

	for _, tt := range cases {
		t.Run(tt, func(t *testing.T) {
			ids := bpe.Encode(tt)
			got, err := bpe.Decode(ids)
			require.NoError(t, err)
			assert.Equal(t, tt, got)
		})
	}
}

func TestBytePairEncodingCompresses(t *testing.T) {
	bpe := trained(t, 60)

	text := trainingCorpus[0]
	ids := bpe.Encode(text)
	assert.Less(t, len(ids), len(text))

	untrained := NewBytePairEncoding(NewVocabulary(), nil)
	assert.Len(t, untrained.Encode(text), len(text))
}

func TestBytePairEncodingUnseenText(t *testing.T) {
	bpe := trained(t, 20)

	text := "Ωμέγα 123"
	ids := bpe.Encode(text)
	require.NotEmpty(t, ids)
	assert.LessOrEqual(t, len(ids), len(text))

	for _, id := range ids {
		assert.GreaterOrEqual(t, id, int32(0))
		assert.Less(t, int(id), bpe.Vocabulary().Size())
		assert.NotEqual(t, bpe.Vocabulary().Unknown(), id)
	}
}

func TestBytePairEncodingReplaysInOrder(t *testing.T) {
	vocab := NewVocabulary()
	vocab.Add("ab")
	vocab.Add("abc")
	vocab.Add("bc")

	ordered := NewBytePairEncoding(vocab, []Pair{{"a", "b"}, {"ab", "c"}, {"b", "c"}})
	assert.Equal(t, []int32{vocab.Encode("abc")}, ordered.Encode("abc"))

	// with (b, c) first, (a, b) never matches
	reordered := NewBytePairEncoding(vocab, []Pair{{"b", "c"}, {"a", "b"}, {"ab", "c"}})
	assert.Equal(t, []int32{vocab.Encode("a"), vocab.Encode("bc")}, reordered.Encode("abc"))
}

func TestBytePairEncodingUnknownFallback(t *testing.T) {
	vocab := NewVocabulary()
	// a merge whose result was never registered
	bpe := NewBytePairEncoding(vocab, []Pair{{"x", "y"}})

	ids := bpe.Encode("xyz")
	assert.Equal(t, []int32{vocab.Unknown(), vocab.Encode("z")}, ids)

	got, err := bpe.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "z", got)
}

func TestBytePairEncodingSpecials(t *testing.T) {
	bpe := trained(t, 30)
	vocab := bpe.Vocabulary()
	eot := vocab.Encode(SpecialEndOfText)

	text := "भारत" + SpecialEndOfText + "the"
	ids := bpe.EncodeSpecial(text)
	assert.Contains(t, ids, eot)

	want := append(append(bpe.Encode("भारत"), eot), bpe.Encode("the")...)
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	// plain Encode spells the token out byte by byte
	assert.NotContains(t, bpe.Encode(text), eot)

	// special tokens carry no bytes
	got, err := bpe.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "भारतthe", got)

	got, err = bpe.Decode([]int32{vocab.Unknown(), eot})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBytePairEncodingDecodeErrors(t *testing.T) {
	bpe := trained(t, 10)

	for _, ids := range [][]int32{{-1}, {int32(bpe.Vocabulary().Size())}, {0, 1, 1 << 30}} {
		_, err := bpe.Decode(ids)
		if !errors.Is(err, ErrInvalidTokenID) {
			t.Errorf("Decode(%v) error = %v, want ErrInvalidTokenID", ids, err)
		}
	}
}

func TestBytePairEncodingDecodeInvalidUTF8(t *testing.T) {
	bpe := trained(t, 10)
	vocab := bpe.Vocabulary()

	// first byte of a three byte sequence on its own
	ids := []int32{vocab.Encode(ByteToSymbol(0xe0)), vocab.Encode("a")}
	got, err := bpe.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "�a", got)
}

func TestBytePairEncodingConcurrent(t *testing.T) {
	bpe := trained(t, 40)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, text := range trainingCorpus {
				got, err := bpe.Decode(bpe.Encode(text))
				assert.NoError(t, err)
				assert.Equal(t, text, got)
			}
		}()
	}
	wg.Wait()
}
