package tokenizer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trainingCorpus = []string{
	"भारत एक देश है",
	"भारत की राजधानी नई दिल्ली है",
	"the quick brown fox jumps over the lazy dog",
	"the cat sat on the mat",
}

func TestTrainScenario(t *testing.T) {
	trainer := NewTrainer(NewVocabulary(), []string{"aaab", "aaab"}, 2)

	var events []MergeEvent
	trainer.OnMerge = func(e MergeEvent) { events = append(events, e) }

	require.NoError(t, trainer.Run(context.Background()))
	assert.True(t, trainer.Done())

	want := []Pair{{"a", "a"}, {"aa", "a"}}
	if diff := cmp.Diff(want, trainer.Merges()); diff != "" {
		t.Errorf("merges mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, events, 2)
	assert.Equal(t, MergeEvent{Round: 0, Pair: Pair{"a", "a"}, Count: 4, ID: 258, Added: true}, events[0])
	assert.Equal(t, MergeEvent{Round: 1, Pair: Pair{"aa", "a"}, Count: 2, ID: 259, Added: true}, events[1])

	vocab := trainer.Vocabulary()
	assert.Equal(t, int32(258), vocab.Encode("aa"))
	assert.Equal(t, int32(259), vocab.Encode("aaa"))
}

func TestTrainVocabularyMonotonic(t *testing.T) {
	vocab := NewVocabulary()
	trainer := NewTrainer(vocab, trainingCorpus, 40)

	for !trainer.Done() {
		before, round := vocab.Size(), trainer.Round()
		trainer.Step()

		require.Equal(t, round+1, trainer.Round())
		require.Equal(t, before+1, vocab.Size())
		assert.Equal(t, int32(before), vocab.Encode(trainer.Merges()[round].Merged()))
	}

	assert.Equal(t, 40, trainer.Round())
	assert.Equal(t, NumBaseSymbols+len(DefaultSpecials)+40, vocab.Size())
	assert.False(t, trainer.Step())
}

func TestTrainDeterministic(t *testing.T) {
	ctx := context.Background()
	first, err := Train(ctx, trainingCorpus, TrainOptions{NumMerges: 50})
	require.NoError(t, err)

	second, err := Train(ctx, trainingCorpus, TrainOptions{NumMerges: 50})
	require.NoError(t, err)

	if diff := cmp.Diff(first.Merges(), second.Merges()); diff != "" {
		t.Errorf("merges differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Vocabulary().Values(), second.Vocabulary().Values())
}

func TestTrainEarlyStop(t *testing.T) {
	cases := map[string][]string{
		"single symbols": {"a", "b", "c"},
		"empty corpus":   nil,
		"empty texts":    {"", ""},
	}

	for name, texts := range cases {
		t.Run(name, func(t *testing.T) {
			trainer := NewTrainer(NewVocabulary(), texts, 10)
			assert.False(t, trainer.Step())
			assert.True(t, trainer.Done())
			assert.Zero(t, trainer.Round())
			assert.Empty(t, trainer.Merges())
		})
	}
}

func TestTrainStopsWhenCollapsed(t *testing.T) {
	bpe, err := Train(context.Background(), []string{"abcd"}, TrainOptions{NumMerges: 100})
	require.NoError(t, err)

	// four bytes collapse into one symbol after three merges
	assert.Len(t, bpe.Merges(), 3)
	assert.Equal(t, []int32{bpe.Vocabulary().Encode("abcd")}, bpe.Encode("abcd"))
}

func TestTrainZeroMerges(t *testing.T) {
	for _, n := range []int{0, -5} {
		trainer := NewTrainer(NewVocabulary(), trainingCorpus, n)
		assert.True(t, trainer.Done())
		assert.False(t, trainer.Step())
		assert.Empty(t, trainer.Merges())
	}
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	trainer := NewTrainer(NewVocabulary(), trainingCorpus, 100)
	trainer.OnMerge = func(e MergeEvent) {
		if e.Round == 4 {
			cancel()
		}
	}

	err := trainer.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, trainer.Round())

	_, err = Train(ctx, trainingCorpus, TrainOptions{NumMerges: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainSpaceSymbol(t *testing.T) {
	bpe, err := Train(context.Background(), []string{"the the the"}, TrainOptions{NumMerges: 3})
	require.NoError(t, err)

	space := ByteToSymbol(' ')
	want := []Pair{{"t", "h"}, {"th", "e"}, {"the", space}}
	if diff := cmp.Diff(want, bpe.Merges()); diff != "" {
		t.Errorf("merges mismatch (-want +got):\n%s", diff)
	}

	for _, value := range bpe.Vocabulary().Values() {
		assert.False(t, strings.Contains(value, " ") && !bpe.Vocabulary().IsSpecial(value), "raw space in %q", value)
	}
}

func TestTrainMergeRebuildsExistingSymbol(t *testing.T) {
	vocab := NewVocabulary()
	trainer := NewTrainer(vocab, []string{"<unk><unk>", "<unk>"}, 10)

	var events []MergeEvent
	var sizes []int
	trainer.OnMerge = func(e MergeEvent) {
		events = append(events, e)
		sizes = append(sizes, vocab.Size())
	}

	require.NoError(t, trainer.Run(context.Background()))

	want := []Pair{{"<", "u"}, {"<u", "n"}, {"<un", "k"}, {"<unk", ">"}, {"<unk>", "<unk>"}}
	if diff := cmp.Diff(want, trainer.Merges()); diff != "" {
		t.Fatalf("merges mismatch (-want +got):\n%s", diff)
	}

	rebuilt := events[3]
	assert.False(t, rebuilt.Added)
	assert.Equal(t, vocab.Encode(SpecialUnknown), rebuilt.ID)
	assert.Equal(t, sizes[2], sizes[3], "vocabulary grew on a rebuilt symbol")

	assert.True(t, events[4].Added)
	assert.Equal(t, int32(sizes[3]), events[4].ID)
	assert.Equal(t, NumBaseSymbols+len(DefaultSpecials)+4, vocab.Size())
}

func TestTrainAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trainer := NewTrainer(NewVocabulary(), trainingCorpus, 10)
	require.ErrorIs(t, trainer.Run(ctx), context.Canceled)
	assert.Equal(t, 0, trainer.Round())
	assert.Empty(t, trainer.Merges())
}

func TestTrainEmptySpecial(t *testing.T) {
	bpe, err := Train(context.Background(), []string{"hello"}, TrainOptions{NumMerges: 2, Specials: []string{SpecialUnknown, ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{SpecialUnknown}, bpe.Vocabulary().Specials())

	done := make(chan []int32)
	go func() { done <- bpe.EncodeSpecial("hi") }()

	select {
	case ids := <-done:
		text, err := bpe.Decode(ids)
		require.NoError(t, err)
		assert.Equal(t, "hi", text)
	case <-time.After(2 * time.Second):
		t.Fatal("EncodeSpecial did not return")
	}
}
