package tokenizer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// byteToRune and runeToByte hold the reversible byte-level alphabet.
// Printable bytes keep their own code point; every other byte is shifted
// to 256+n, n counting the non-printable bytes in byte-value order.
var (
	byteToRune [256]rune
	runeToByte = make(map[rune]byte, 256)

	// alphabetOrder lists the bytes in the order their symbols are
	// introduced: printable bytes ascending, then the shifted ones.
	alphabetOrder [256]byte
)

func printable(b byte) bool {
	switch {
	case b >= '!' && b <= '~':
		return true
	case b >= 0xa1 && b <= 0xac:
		return true
	case b >= 0xae:
		return true
	default:
		return false
	}
}

func init() {
	var n, i int
	for b := 0; b < 256; b++ {
		if printable(byte(b)) {
			byteToRune[b] = rune(b)
			alphabetOrder[i] = byte(b)
			i++
		}
	}

	for b := 0; b < 256; b++ {
		if !printable(byte(b)) {
			byteToRune[b] = rune(256 + n)
			alphabetOrder[i] = byte(b)
			n++
			i++
		}
	}

	for b, r := range byteToRune {
		runeToByte[r] = byte(b)
	}
}

// ByteToSymbol returns the single code point symbol standing for b.
func ByteToSymbol(b byte) string {
	return string(byteToRune[b])
}

// SymbolToByte is the inverse of ByteToSymbol. It reports false when s is
// not exactly one alphabet symbol.
func SymbolToByte(s string) (byte, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, false
	}

	b, ok := runeToByte[r]
	return b, ok
}

// Alphabet returns the 256 base symbols in vocabulary order.
func Alphabet() []string {
	symbols := make([]string, 0, len(alphabetOrder))
	for _, b := range alphabetOrder {
		symbols = append(symbols, ByteToSymbol(b))
	}

	return symbols
}

// TextToSymbols converts text to its UTF-8 bytes and maps each byte to its
// base symbol.
func TextToSymbols(text string) []string {
	symbols := make([]string, len(text))
	for i := 0; i < len(text); i++ {
		symbols[i] = ByteToSymbol(text[i])
	}

	return symbols
}

// symbolBytes appends the raw bytes spelled by a (possibly merged) symbol.
func symbolBytes(dst []byte, symbol string) ([]byte, bool) {
	for _, r := range symbol {
		b, ok := runeToByte[r]
		if !ok {
			return dst, false
		}
		dst = append(dst, b)
	}

	return dst, true
}

// DecodeBytes decodes b as UTF-8, replacing ill-formed subsequences with
// U+FFFD.
func DecodeBytes(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}

	return string(out)
}
