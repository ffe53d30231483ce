// Package morph provides the small amount of Russian morphology the permit
// parser needs: part-of-speech lookup, reduction to dictionary form, and
// adjective agreement. The parser consumes it through the Analyzer interface
// so a full morphological engine can be swapped in without touching the
// extraction code.
package morph

import "strings"

type POS int

const (
	POSOther POS = iota
	POSNoun
	POSAdjective
)

type Gender int

const (
	GenderMasculine Gender = iota
	GenderFeminine
	GenderNeuter
)

type Number int

const (
	NumberSingular Number = iota
	NumberPlural
)

// Info describes one recognized word form.
type Info struct {
	Lemma  string
	POS    POS
	Gender Gender
	Number Number
}

// Analyzer looks up word forms and re-inflects adjectives. Both methods
// report false for words outside the analyzer's vocabulary; callers leave
// such words untouched.
type Analyzer interface {
	Parse(word string) (Info, bool)
	Inflect(word string, g Gender, n Number) (string, bool)
}

// NormalizePhrase reduces a phrase to dictionary form. With exactly one
// recognized noun, every word is lemmatized and adjectives are re-inflected
// to agree with that noun. With no nouns, words are lemmatized independently.
// With several nouns the phrase is ambiguous and returned unchanged.
func NormalizePhrase(a Analyzer, phrase string) string {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return phrase
	}

	infos := make([]Info, len(words))
	known := make([]bool, len(words))
	var noun *Info
	nouns := 0
	for i, w := range words {
		if strings.ContainsAny(w, "«»\"") || strings.ContainsAny(w, "0123456789") {
			continue // quoted proper names and numbers stay as written
		}
		info, ok := a.Parse(w)
		if !ok {
			continue
		}
		infos[i] = info
		known[i] = true
		if info.POS == POSNoun {
			nouns++
			noun = &infos[i]
		}
	}

	if nouns > 1 {
		return phrase
	}

	out := make([]string, len(words))
	for i, w := range words {
		switch {
		case !known[i]:
			out[i] = w
		case nouns == 1 && infos[i].POS == POSAdjective:
			if inflected, ok := a.Inflect(w, noun.Gender, noun.Number); ok {
				out[i] = inflected
			} else {
				out[i] = infos[i].Lemma
			}
		default:
			out[i] = infos[i].Lemma
		}
	}
	return strings.Join(out, " ")
}
