package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PavelSyomin/oks-checker/morph"
)

// Final values of the normalized report fields.
const (
	StatusActive     = "действует"
	StatusExpired    = "истек"
	StatusUnknown    = "не определен"
	StatusClassified = "для служебного пользования"

	TypeLegalEntity = "юридическое лицо"
	TypeIndividual  = "физическое лицо"

	UseResidential    = "жилая"
	UseNonResidential = "нежилая"
	UseMixed          = "смешанная"
)

// classifiedMarker appears on single-page stub documents published in place
// of a restricted permit.
const classifiedMarker = "Для служебного пользования"

// exemptionPhrase marks parcels whose use is not governed by the development
// regulation at all.
const exemptionPhrase = "действие градостроительного регламента не распространяется"

const issueDateLabel = "Дата выдачи"

// preparedLabels identify the page carrying the issue date. The two template
// families word the phrase differently.
var preparedLabels = []string{
	"Градостроительный план подготовлен",
	"Градостроительный план земельного участка подготовлен",
}

var (
	datePattern       = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	datedRefSuffix    = regexp.MustCompile(`\s+от\s+\d{2}\.\d{2}\.\d{4}.*$`)
	intRunPattern     = regexp.MustCompile(`\d+`)
	useKindPattern    = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\b`)
	titleWordPattern  = regexp.MustCompile(`^[А-ЯЁ][а-яё]+`)
	settlementPattern = regexp.MustCompile(`(?:поселение|деревня|село|пос[её]лок|район)\s+([А-ЯЁ][а-яёА-ЯЁ-]*(?:\s+[А-ЯЁ][а-яёА-ЯЁ-]*)?)`)
	streetPattern     = regexp.MustCompile(`((?:улица|ул\.|шоссе|проспект|просп\.|переулок|пер\.|проезд|бульвар|набережная|наб\.|аллея|тупик|площадь|линия)\s+[А-ЯЁ][^,;\n]*)`)
)

// Legislative suspension windows. A three-year term ending inside one is
// prolonged by another year.
var extensionWindows = [][2]time.Time{
	{date(2020, 4, 6), date(2021, 1, 1)},
	{date(2022, 4, 13), date(2023, 1, 1)},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDecimal reads a number with space-grouped thousands and a comma or
// dot decimal separator. Unparseable input counts as zero.
func parseDecimal(s string) float64 {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizeRightsholder strips the dated-reference suffix (and, in the РФ
// template, the leading request phrase), then reduces the remaining phrase
// to dictionary form.
func (p *Parser) normalizeRightsholder(raw Raw, v Variant) (holder, holderType any) {
	if !raw.Ok() {
		return nil, nil
	}
	s := raw.Value
	if v == VariantRF {
		s = stripRequestPrefix(s)
	}
	s = datedRefSuffix.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if p.Morph != nil {
		s = morph.NormalizePhrase(p.Morph, s)
	}
	return s, p.classifyRightsholder(s)
}

// stripRequestPrefix drops the "request of" wording the РФ template puts in
// front of the holder's name.
func stripRequestPrefix(s string) string {
	w, rest, ok := strings.Cut(s, " ")
	if !ok {
		return s
	}
	switch strings.ToLower(w) {
	case "заявления", "заявление", "обращения", "обращение":
		return rest
	}
	return s
}

// legalEntityKeywords are organizational-form nouns, in dictionary form.
var legalEntityKeywords = wordSet(
	"общество", "товарищество", "партнерство", "учреждение", "предприятие",
	"организация", "объединение", "кооператив", "компания", "фонд",
	"ассоциация", "корпорация", "артель", "банк", "департамент",
	"администрация", "управление", "агентство",
)

var individualKeywords = wordSet("гражданин", "гражданка")

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// classifyRightsholder tells a legal entity from an individual: by
// organizational-form keyword, by the quoted-name convention, and finally by
// the capitalization of the first two words for short phrases.
func (p *Parser) classifyRightsholder(s string) string {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ",.;:()")
		if p.Morph != nil {
			if info, ok := p.Morph.Parse(w); ok {
				w = info.Lemma
			}
		}
		if individualKeywords[w] {
			return TypeIndividual
		}
		if legalEntityKeywords[w] {
			return TypeLegalEntity
		}
	}
	if strings.ContainsAny(s, "«»\"") {
		return TypeLegalEntity
	}
	words := strings.Fields(s)
	if len(words) >= 2 && len(words) < 4 {
		if titleWordPattern.MatchString(words[0]) && titleWordPattern.MatchString(words[1]) {
			return TypeIndividual
		}
		return TypeLegalEntity
	}
	return TypeIndividual
}

// normalizeLocation extracts the settlement and street from the location
// text and resolves the administrative district. The three values stand or
// fall together: any miss in the chain nulls them all.
func (p *Parser) normalizeLocation(raw Raw) (settlement, street, district any) {
	if !raw.Ok() || p.Geo == nil {
		return nil, nil, nil
	}
	m := settlementPattern.FindStringSubmatch(raw.Value)
	if m == nil {
		return nil, nil, nil
	}
	sm := streetPattern.FindStringSubmatch(raw.Value)
	if sm == nil {
		return nil, nil, nil
	}
	d, ok := p.Geo.Resolve(m[1])
	if !ok {
		return nil, nil, nil
	}
	return m[1], strings.TrimSpace(sm[1]), d
}

// normalizeUseKinds lists the permitted-use codes and classifies the parcel.
// Codes starting "2." and the kindergarten-adjacent 13.2 count residential.
// Without any code, the regulation-exemption phrase classifies the parcel
// non-residential with the raw text standing in for the code list.
func normalizeUseKinds(raw Raw) (codes, classification any) {
	if !raw.Ok() {
		return nil, nil
	}
	matched := useKindPattern.FindAllString(raw.Value, -1)
	if len(matched) == 0 {
		if strings.Contains(strings.ToLower(raw.Value), exemptionPhrase) {
			return raw.Value, UseNonResidential
		}
		return nil, nil
	}
	residential, nonResidential := false, false
	for _, c := range matched {
		if strings.HasPrefix(c, "2.") || c == "13.2" {
			residential = true
		} else {
			nonResidential = true
		}
	}
	list := strings.Join(matched, ", ")
	switch {
	case residential && nonResidential:
		return list, UseMixed
	case residential:
		return list, UseResidential
	}
	return list, UseNonResidential
}

// normalizeParcelArea reads the first digit run as an integer number of
// square meters, scaling hectares by 10000.
func normalizeParcelArea(raw Raw) any {
	if !raw.Ok() {
		return nil
	}
	m := intRunPattern.FindString(raw.Value)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	if strings.Contains(raw.Value, "га") {
		n *= 10000
	}
	return n
}

// issueDate finds the first date on the first page that carries both the
// issue-date label and a prepared-permit label.
func issueDate(text map[int]string) (time.Time, bool) {
	for _, page := range orderedPages(text) {
		t := text[page]
		if !strings.Contains(t, issueDateLabel) || !containsAny(t, preparedLabels) {
			continue
		}
		for _, m := range datePattern.FindAllString(t, -1) {
			if d, err := time.Parse("02.01.2006", m); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// expiryDate is the three-year term, prolonged by one more year when the
// unextended result lands inside a legislative suspension window, bounds
// inclusive.
func expiryDate(start time.Time) time.Time {
	end := start.AddDate(3, 0, 0)
	for _, w := range extensionWindows {
		if !end.Before(w[0]) && !end.After(w[1]) {
			return end.AddDate(1, 0, 0)
		}
	}
	return end
}

// permitStatus reports the document's standing as of the given day. A
// single-page document carrying the restricted-use marker is classified
// regardless of dates.
func permitStatus(text map[int]string, end time.Time, now time.Time) string {
	if len(text) == 1 {
		for _, t := range text {
			if strings.Contains(t, classifiedMarker) {
				return StatusClassified
			}
		}
	}
	if end.IsZero() {
		return StatusUnknown
	}
	today := date(now.Year(), now.Month(), now.Day())
	if !end.Before(today) {
		return StatusActive
	}
	return StatusExpired
}

// residentialFloorArea prefers the explicit residential entry; when the
// source leaves it blank the residue of total minus non-residential stands
// in, floored at zero.
func residentialFloorArea(b Breakdown) float64 {
	if b.Residential != 0 {
		return b.Residential
	}
	if d := b.Total - b.NonResident; d > 0 {
		return d
	}
	return 0
}

// aggregates sums the per-subzone breakdowns for the building-parameters
// section. Values never parsed stay zero and do not disturb the sums.
func aggregates(subzones map[int]Subzone) (floorTotal, floorResidential, areaTotal, underground float64) {
	for _, sz := range subzones {
		floorTotal += sz.FloorArea.Total
		floorResidential += residentialFloorArea(sz.FloorArea)
		areaTotal += sz.TotalArea.Total
		underground += sz.TotalArea.Underground
	}
	return floorTotal, floorResidential, areaTotal, underground
}
