package parser

import (
	"sort"
	"strings"
)

func orderedPages(text map[int]string) []int {
	pages := make([]int, 0, len(text))
	for p := range text {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// splitLines flattens page text into one ordered list of trimmed, non-empty
// lines, pages in ascending order.
func splitLines(text map[int]string) []string {
	var lines []string
	for _, p := range orderedPages(text) {
		for _, line := range strings.Split(text[p], "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// documentNumber finds the permit number on page 1: the first line beginning
// with the "№" marker, with the marker stripped. Missing page or marker
// yields "".
func documentNumber(text map[int]string) string {
	first, ok := text[1]
	if !ok {
		return ""
	}
	for _, line := range strings.Split(first, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "№") {
			return strings.TrimSpace(strings.TrimPrefix(line, "№"))
		}
	}
	return ""
}

// detectVariant classifies the template family by the document number prefix.
// Unknown prefixes leave the variant undetermined.
func detectVariant(number string) Variant {
	switch {
	case strings.HasPrefix(number, "RU"):
		return VariantRU
	case strings.HasPrefix(number, "РФ"):
		return VariantRF
	}
	return VariantUnknown
}

// extract slices every anchored field out of the line list. A field whose
// start anchor never occurs is absent; one whose anchor occurs with no value
// to take is malformed. Neither outcome fails the other fields. A nil anchor
// map (unknown variant) yields all fields absent.
func extract(lines []string, anchors map[string]anchor) map[string]Raw {
	fields := make(map[string]Raw, len(anchors))
	for name, a := range anchors {
		fields[name] = extractField(lines, a)
	}
	return fields
}

func extractField(lines []string, a anchor) Raw {
	at := -1
	for i, line := range lines {
		if strings.HasPrefix(line, a.start) {
			at = i
			break
		}
	}
	if at < 0 {
		return absent()
	}

	start := at + a.offset
	if start >= len(lines) {
		return malformed()
	}

	if a.span == spanLine {
		return found(lines[start])
	}

	// Accumulate until the stop anchor; without one the value runs to the
	// end of input.
	var value []string
	for i := start; i < len(lines); i++ {
		if a.stop != "" && strings.HasPrefix(lines[i], a.stop) {
			break
		}
		value = append(value, lines[i])
	}
	if len(value) == 0 {
		return malformed()
	}
	return found(strings.Join(value, " "))
}
