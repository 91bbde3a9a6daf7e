package tokenizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// FileVersion is written into every saved tokenizer.
const FileVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported tokenizer file version")

// file is the on-disk layout of a trained tokenizer.
type file struct {
	Version       uint16           `cbor:"version"`
	Vocab         []string         `cbor:"vocab"`
	Merges        [][2]string      `cbor:"merges"`
	SpecialTokens map[string]int32 `cbor:"special_tokens"`
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// WriteTo writes bpe as CBOR.
func (bpe *BytePairEncoding) WriteTo(w io.Writer) (int64, error) {
	f := file{
		Version:       FileVersion,
		Vocab:         bpe.vocab.values,
		Merges:        make([][2]string, len(bpe.merges)),
		SpecialTokens: bpe.vocab.SpecialIDs(),
	}

	for i, merge := range bpe.merges {
		f.Merges[i] = [2]string{merge.Left, merge.Right}
	}

	bts, err := encMode.Marshal(f)
	if err != nil {
		return 0, err
	}

	n, err := w.Write(bts)
	return int64(n), err
}

// Save writes bpe to path, replacing it atomically.
func (bpe *BytePairEncoding) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := bpe.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// ReadFrom reads a tokenizer written by WriteTo and checks that it is
// consistent.
func ReadFrom(r io.Reader) (*BytePairEncoding, error) {
	var f file
	if err := cbor.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptVocabulary, err)
	}

	if f.Version != FileVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}

	if len(f.Vocab) < NumBaseSymbols {
		return nil, fmt.Errorf("%w: %d entries, want at least %d", ErrCorruptVocabulary, len(f.Vocab), NumBaseSymbols)
	}

	for i, symbol := range Alphabet() {
		if f.Vocab[i] != symbol {
			return nil, fmt.Errorf("%w: id %d is %q, want base symbol %q", ErrCorruptVocabulary, i, f.Vocab[i], symbol)
		}
	}

	vocab := &Vocabulary{
		values: make([]string, 0, len(f.Vocab)),
		index:  make(map[string]int32, len(f.Vocab)),
	}

	for _, symbol := range f.Vocab {
		if _, added := vocab.Add(symbol); !added {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrCorruptVocabulary, symbol)
		}
	}

	if _, ok := f.SpecialTokens[""]; ok {
		return nil, fmt.Errorf("%w: empty special token", ErrCorruptVocabulary)
	}

	for id := range vocab.values {
		symbol := vocab.values[id]
		if want, ok := f.SpecialTokens[symbol]; ok {
			if want != int32(id) {
				return nil, fmt.Errorf("%w: special %q stored at %d, listed as %d", ErrCorruptVocabulary, symbol, id, want)
			}
			vocab.specials = append(vocab.specials, symbol)
		}
	}

	if len(vocab.specials) != len(f.SpecialTokens) {
		return nil, fmt.Errorf("%w: special tokens missing from vocabulary", ErrCorruptVocabulary)
	}

	merges := make([]Pair, len(f.Merges))
	for i, m := range f.Merges {
		merges[i] = Pair{Left: m[0], Right: m[1]}
		for _, symbol := range []string{merges[i].Left, merges[i].Right, merges[i].Merged()} {
			if vocab.Encode(symbol) < 0 {
				return nil, fmt.Errorf("%w: merge %d %s uses unknown symbol %q", ErrCorruptVocabulary, i, merges[i], symbol)
			}
		}
	}

	return &BytePairEncoding{vocab: vocab, merges: merges}, nil
}

// Load reads a tokenizer saved with Save.
func Load(path string) (*BytePairEncoding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bpe, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return bpe, nil
}
