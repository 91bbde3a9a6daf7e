package tokenizer

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

const (
	// NumBaseSymbols is the size of the byte alphabet occupying IDs 0..255.
	NumBaseSymbols = 256

	SpecialUnknown   = "<unk>"
	SpecialEndOfText = "<|endoftext|>"
)

// DefaultSpecials are reserved right after the byte alphabet, in order.
var DefaultSpecials = []string{SpecialUnknown, SpecialEndOfText}

var (
	ErrInvalidTokenID    = errors.New("invalid token id")
	ErrCorruptVocabulary = errors.New("corrupt vocabulary")
)

// Vocabulary is an append-only table of symbols indexed by dense ID with a
// reverse index kept in step on every insertion.
type Vocabulary struct {
	values   []string
	index    map[string]int32
	specials []string
}

// NewVocabulary seeds the byte alphabet followed by the given special
// tokens, or DefaultSpecials when none are given. Empty spellings and
// spellings already present are skipped.
func NewVocabulary(specials ...string) *Vocabulary {
	if len(specials) == 0 {
		specials = DefaultSpecials
	}

	v := &Vocabulary{
		values: make([]string, 0, NumBaseSymbols+len(specials)),
		index:  make(map[string]int32, NumBaseSymbols+len(specials)),
	}

	for _, symbol := range Alphabet() {
		v.Add(symbol)
	}

	for _, special := range specials {
		if special == "" {
			slog.Warn("ignoring empty special token")
			continue
		}

		id, added := v.Add(special)
		if !added {
			slog.Warn("ignoring special token already in vocabulary", "special", special, "id", id)
			continue
		}

		v.specials = append(v.specials, special)
	}

	return v
}

// Add appends symbol at the next free ID. A symbol already present keeps
// its ID and added is false.
func (v *Vocabulary) Add(symbol string) (id int32, added bool) {
	if id, ok := v.index[symbol]; ok {
		return id, false
	}

	id = int32(len(v.values))
	v.index[symbol] = id
	v.values = append(v.values, symbol)
	return id, true
}

// Encode returns the ID of symbol or -1 when it is not in the vocabulary.
func (v *Vocabulary) Encode(symbol string) int32 {
	if id, ok := v.index[symbol]; ok {
		return id
	}

	return -1
}

// Decode returns the symbol stored at id.
func (v *Vocabulary) Decode(id int32) (string, error) {
	if id < 0 || int(id) >= len(v.values) {
		return "", fmt.Errorf("%w: %d (vocabulary size %d)", ErrInvalidTokenID, id, len(v.values))
	}

	return v.values[id], nil
}

func (v *Vocabulary) Size() int {
	return len(v.values)
}

// Values returns the symbols in ID order.
func (v *Vocabulary) Values() []string {
	return slices.Clone(v.values)
}

// Specials returns the special tokens in ID order.
func (v *Vocabulary) Specials() []string {
	return slices.Clone(v.specials)
}

func (v *Vocabulary) IsSpecial(symbol string) bool {
	return slices.Contains(v.specials, symbol)
}

// SpecialIDs maps every special token to its ID.
func (v *Vocabulary) SpecialIDs() map[string]int32 {
	m := make(map[string]int32, len(v.specials))
	for _, special := range v.specials {
		m[special] = v.index[special]
	}

	return m
}

// Unknown returns the ID of the unknown token, or -1 when the vocabulary
// was built without one.
func (v *Vocabulary) Unknown() int32 {
	if !v.IsSpecial(SpecialUnknown) {
		return -1
	}

	return v.index[SpecialUnknown]
}
