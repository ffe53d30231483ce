package morph

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed data/nouns.csv
var nounData []byte

//go:embed data/adjectives.txt
var adjectiveData []byte

// Dictionary is the embedded-lexicon Analyzer. Noun forms are listed
// explicitly because gender is lexical; adjectives are handled by their
// regular declension endings over a stem list. The vocabulary covers the
// organizational and administrative phrases the permits actually use.
// Read-only after construction, safe for concurrent use.
type Dictionary struct {
	nouns    map[string]nounEntry
	adjStems map[string]string // stem -> lemma
}

type nounEntry struct {
	lemma  string
	gender Gender
}

// NewDictionary loads the embedded lexicon. The data is compiled in, so a
// failure means a malformed data file, not a runtime condition.
func NewDictionary() (*Dictionary, error) {
	d := &Dictionary{
		nouns:    make(map[string]nounEntry),
		adjStems: make(map[string]string),
	}

	sc := bufio.NewScanner(bytes.NewReader(nounData))
	line := 0
	for sc.Scan() {
		line++
		row := strings.TrimSpace(sc.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		parts := strings.Split(row, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("nouns.csv line %d: want form,lemma,gender", line)
		}
		g, err := parseGender(parts[2])
		if err != nil {
			return nil, fmt.Errorf("nouns.csv line %d: %w", line, err)
		}
		d.nouns[parts[0]] = nounEntry{lemma: parts[1], gender: g}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sc = bufio.NewScanner(bytes.NewReader(adjectiveData))
	line = 0
	for sc.Scan() {
		line++
		lemma := strings.TrimSpace(sc.Text())
		if lemma == "" || strings.HasPrefix(lemma, "#") {
			continue
		}
		stem, ok := adjectiveStem(lemma)
		if !ok {
			return nil, fmt.Errorf("adjectives.txt line %d: %q has no adjective ending", line, lemma)
		}
		d.adjStems[stem] = lemma
	}
	return d, sc.Err()
}

func parseGender(s string) (Gender, error) {
	switch s {
	case "m":
		return GenderMasculine, nil
	case "f":
		return GenderFeminine, nil
	case "n":
		return GenderNeuter, nil
	}
	return 0, fmt.Errorf("unknown gender %q", s)
}

// adjectiveStem strips the masculine-nominative ending of a lemma.
func adjectiveStem(lemma string) (string, bool) {
	for _, end := range []string{"ый", "ий", "ой"} {
		if strings.HasSuffix(lemma, end) {
			return strings.TrimSuffix(lemma, end), true
		}
	}
	return "", false
}

// Inflected-form endings, longest first so "ого" wins over "го"-less splits.
var adjectiveEndings = []string{
	"ого", "его", "ому", "ему", "ыми", "ими",
	"ая", "яя", "ое", "ее", "ые", "ие", "ый", "ий", "ой", "ей",
	"ою", "ею", "ую", "юю", "ым", "им", "ых", "их", "ом", "ем",
}

func (d *Dictionary) Parse(word string) (Info, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return Info{}, false
	}

	if n, ok := d.nouns[w]; ok {
		return Info{Lemma: n.lemma, POS: POSNoun, Gender: n.gender, Number: NumberSingular}, true
	}

	if lemma, ok := d.adjectiveLemma(w); ok {
		return Info{Lemma: lemma, POS: POSAdjective, Gender: GenderMasculine, Number: NumberSingular}, true
	}

	return Info{}, false
}

func (d *Dictionary) adjectiveLemma(w string) (string, bool) {
	for _, end := range adjectiveEndings {
		stem, found := strings.CutSuffix(w, end)
		if !found {
			continue
		}
		if lemma, ok := d.adjStems[stem]; ok {
			return lemma, true
		}
	}
	return "", false
}

// Inflect produces the nominative form of an adjective agreeing with the
// given gender and number. Non-adjectives and unknown words report false.
func (d *Dictionary) Inflect(word string, g Gender, n Number) (string, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	lemma, ok := d.adjectiveLemma(w)
	if !ok {
		return "", false
	}
	stem, _ := adjectiveStem(lemma)

	if n == NumberPlural {
		return stem + pluralEnding(stem, lemma), true
	}
	switch g {
	case GenderFeminine:
		if softStem(stem, lemma) {
			return stem + "яя", true
		}
		return stem + "ая", true
	case GenderNeuter:
		if softStem(stem, lemma) {
			return stem + "ее", true
		}
		return stem + "ое", true
	}
	return lemma, true
}

// softStem detects soft-declension adjectives (синий, дочерний): an -ий
// lemma over a stem ending in "н".
func softStem(stem, lemma string) bool {
	return strings.HasSuffix(lemma, "ий") && strings.HasSuffix(stem, "н")
}

// pluralEnding follows the spelling rule: velar and sibilant stems take -ие.
func pluralEnding(stem, lemma string) string {
	if softStem(stem, lemma) {
		return "ие"
	}
	for _, c := range []string{"к", "г", "х", "ж", "ч", "ш", "щ"} {
		if strings.HasSuffix(stem, c) {
			return "ие"
		}
	}
	return "ые"
}
