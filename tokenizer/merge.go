package tokenizer

// ApplyMerge rewrites every sequence, collapsing each occurrence of p into
// a single symbol. Sequences without p are returned as they are.
func ApplyMerge(p Pair, seqs [][]string) [][]string {
	merged := make([][]string, len(seqs))
	for i, seq := range seqs {
		merged[i] = applyMerge(seq, p)
	}

	return merged
}

// applyMerge scans seq left to right. A match consumes both symbols, so
// matches never overlap and a freshly merged symbol is not looked at again
// in the same pass.
func applyMerge(seq []string, p Pair) []string {
	at := -1
	for i := 0; i+1 < len(seq); i++ {
		if seq[i] == p.Left && seq[i+1] == p.Right {
			at = i
			break
		}
	}

	if at < 0 {
		return seq
	}

	out := make([]string, at, len(seq)-1)
	copy(out, seq[:at])

	ab := p.Merged()
	for i := at; i < len(seq); {
		if i+1 < len(seq) && seq[i] == p.Left && seq[i+1] == p.Right {
			out = append(out, ab)
			i += 2
		} else {
			out = append(out, seq[i])
			i++
		}
	}

	return out
}
