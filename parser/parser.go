package parser

import (
	"errors"
	"strings"
	"time"

	"github.com/PavelSyomin/oks-checker/geo"
	"github.com/PavelSyomin/oks-checker/morph"
)

// ErrNoText reports a document with no extractable text at all, the only
// condition that fails a parse outright. Callers render it as a bare
// error-status object.
var ErrNoText = errors.New("no text extracted from document")

// Parser turns extracted page text and tables into the normalized report.
// The analyzer and geo index are read-only, so one Parser may serve many
// goroutines. Now substitutes the clock for status computation in tests;
// nil means time.Now.
type Parser struct {
	Morph morph.Analyzer
	Geo   *geo.Index
	Now   func() time.Time
}

func New(m morph.Analyzer, g *geo.Index) *Parser {
	return &Parser{Morph: m, Geo: g}
}

// Parse runs the full pipeline on one document: variant detection, anchored
// field extraction, subzone table parsing, the unregulated-objects check,
// and normalization into the report sections. Every step degrades
// independently; only a document with no text fails.
func (p *Parser) Parse(src Source) (Report, error) {
	if !hasText(src.Text) {
		return Report{}, ErrNoText
	}

	number := documentNumber(src.Text)
	variant := detectVariant(number)
	lines := splitLines(src.Text)
	fields := extract(lines, anchorsFor(variant))
	subzones := parseSubzones(src.Tables)
	unregulated := checkUnregulated(src.Tables)

	return p.assemble(src, number, variant, fields, subzones, unregulated), nil
}

func hasText(text map[int]string) bool {
	for _, t := range text {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}
