package pdf

import (
	"math"
	"strconv"
	"strings"

	"github.com/PavelSyomin/oks-checker/parser"
)

// kerningThreshold is the absolute value above which a kerning/spacing number
// in a TJ array is treated as a column separator rather than intra-word spacing.
const kerningThreshold = 500

// yTolerance is the vertical distance in text-space units within which two
// positioned text blocks count as the same row. Bordered tables draw every
// cell as its own block, so row membership has to come from the y coordinate.
const yTolerance = 2.0

// extractTextItems parses a page content stream into an ordered list of text
// items. Empty strings are line-break markers: a Td/TD with a vertical
// component, a T*, or a text matrix repositioning to a different row.
// Hex-encoded show strings are decoded through the page font CMap.
func extractTextItems(stream []byte, fonts CMap) []string {
	tokens := tokenize(string(stream))
	var items []string
	var stack []token // operand stack
	var tc float64    // current Tc (character spacing) in text space units
	lastY := math.NaN()

	show := func(t token) {
		s, ok := shownText(t, fonts)
		if !ok || s == "" {
			return
		}
		if math.Abs(tc*1000) > kerningThreshold {
			// Large Tc: each character is visually in a different
			// column, so emit them separately.
			for _, ch := range s {
				items = append(items, string(ch))
			}
			return
		}
		items = append(items, s)
	}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.kind {
		case tokOperator:
			switch t.value {
			case "Tj":
				if len(stack) > 0 {
					show(stack[len(stack)-1])
				}
				stack = stack[:0]

			case "'":
				// Next-line show: a line break, then the string.
				items = append(items, "")
				if len(stack) > 0 {
					show(stack[len(stack)-1])
				}
				stack = stack[:0]

			case "TJ":
				if len(stack) > 0 {
					a := stack[len(stack)-1]
					if a.kind == tokArray {
						items = append(items, processTJArray(a.children, tc*1000, fonts)...)
					}
				}
				stack = stack[:0]

			case "TD", "Td":
				// Text positioning. Two numeric operands: tx ty.
				// A non-zero ty means we moved to a new line.
				if len(stack) >= 2 {
					ty, err := strconv.ParseFloat(stack[len(stack)-1].value, 64)
					if err == nil && ty != 0 {
						items = append(items, "")
						if !math.IsNaN(lastY) {
							lastY += ty
						}
					}
				}
				stack = stack[:0]

			case "T*":
				items = append(items, "")
				stack = stack[:0]

			case "Tm":
				// Text matrix: six operands, the last is the y
				// coordinate. Same-row repositioning (another cell
				// of the same table row) must not break the line.
				if len(stack) >= 6 {
					y, err := strconv.ParseFloat(stack[len(stack)-1].value, 64)
					if err == nil {
						if math.IsNaN(lastY) || math.Abs(y-lastY) > yTolerance {
							items = append(items, "")
						}
						lastY = y
					}
				}
				stack = stack[:0]

			case "Tc":
				// Character spacing operator: one numeric operand.
				if len(stack) > 0 {
					val, err := strconv.ParseFloat(stack[len(stack)-1].value, 64)
					if err == nil {
						tc = val
					}
				}
				stack = stack[:0]

			default:
				// Other operators: clear the operand stack.
				stack = stack[:0]
			}

		default:
			stack = append(stack, t)
		}
	}

	return items
}

func shownText(t token, fonts CMap) (string, bool) {
	switch t.kind {
	case tokString:
		return t.value, true
	case tokHex:
		return DecodeHexString(t.value, fonts), true
	}
	return "", false
}

// processTJArray takes the children of a TJ array and returns text items,
// using the effective gap between characters to decide column boundaries.
//
// The effective gap accounts for both TJ displacement values and Tc (character
// spacing). When Tc is large, the PDF spreads characters across columns using
// character spacing instead of (or in addition to) TJ kerning values. TJ values
// that approximately equal Tc*1000 cancel the character spacing, keeping
// adjacent characters together within the same value.
//
// For each pair of adjacent characters:
//   - Within a string: gap = Tc*1000 (no TJ value)
//   - Across a TJ number: gap = Tc*1000 - TJ_value
//
// If abs(gap) > kerningThreshold, a column boundary is inserted.
func processTJArray(children []token, tcThousandths float64, fonts CMap) []string {
	var items []string
	var cur strings.Builder
	nextGap := 0.0
	isFirst := true

	for _, c := range children {
		switch c.kind {
		case tokString, tokHex:
			s, _ := shownText(c, fonts)
			for _, ch := range s {
				if !isFirst && cur.Len() > 0 && math.Abs(nextGap) > kerningThreshold {
					items = append(items, cur.String())
					cur.Reset()
				}
				cur.WriteRune(ch)
				isFirst = false
				nextGap = tcThousandths // default for next char (intra-string)
			}
		case tokNumber:
			val, err := strconv.ParseFloat(c.value, 64)
			if err != nil {
				continue
			}
			// Subtract TJ value from the pending gap. The TJ displacement
			// is subtracted from the text position, so it reduces the
			// effective gap when positive and increases it when negative.
			nextGap -= val
		}
	}

	if cur.Len() > 0 {
		items = append(items, cur.String())
	}

	return items
}

// groupIntoLines splits text items into lines using empty-string line-break
// markers. Adjacent empties are collapsed and leading/trailing empties trimmed.
func groupIntoLines(items []string) [][]string {
	var lines [][]string
	var current []string
	for _, item := range items {
		s := strings.TrimSpace(item)
		if s == "" {
			if len(current) > 0 {
				lines = append(lines, current)
				current = nil
			}
		} else {
			current = append(current, s)
		}
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// pageText flattens reconstructed lines back into plain page text, cells
// separated by single spaces.
func pageText(lines [][]string) string {
	var b strings.Builder
	for _, line := range lines {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(line, " "))
	}
	return b.String()
}

// assembleTables recovers tabular blocks from reconstructed lines: a
// single-cell line opens a new block as its caption row, multi-cell lines
// become its rows. Blocks that never grow a multi-cell row are running text,
// not tables, and are dropped. Downstream consumers re-validate shapes, so
// over-collection is harmless.
func assembleTables(lines [][]string) []parser.RawTable {
	var tables []parser.RawTable
	var cur [][]string

	flush := func() {
		if isTable(cur) {
			tables = append(tables, parser.RawTable{Cells: cur})
		}
		cur = nil
	}

	for _, line := range lines {
		if len(line) == 1 {
			flush()
			cur = [][]string{line}
			continue
		}
		cur = append(cur, line)
	}
	flush()

	return tables
}

func isTable(cells [][]string) bool {
	if len(cells) < 2 {
		return false
	}
	for _, row := range cells {
		if len(row) >= 2 {
			return true
		}
	}
	return false
}

// Token types for the PDF content stream tokenizer.
type tokenKind int

const (
	tokString   tokenKind = iota // (text)
	tokHex                       // <hex glyph ids>
	tokNumber                    // 123, -45.6
	tokOperator                  // BT, Tj, TJ, TD, etc.
	tokArray                     // [...], children stored in token.children
)

type token struct {
	kind     tokenKind
	value    string
	children []token // only for tokArray
}

// tokenize performs a simple tokenization of a PDF content stream.
func tokenize(s string) []token {
	var tokens []token
	i := 0
	n := len(s)

	for i < n {
		ch := s[i]

		// Skip whitespace.
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			i++
			continue
		}

		// Comment.
		if ch == '%' {
			for i < n && s[i] != '\n' && s[i] != '\r' {
				i++
			}
			continue
		}

		// String literal (parenthesized).
		if ch == '(' {
			str, end := readString(s, i)
			tokens = append(tokens, token{kind: tokString, value: str})
			i = end
			continue
		}

		// Array.
		if ch == '[' {
			arr, end := readArray(s, i)
			tokens = append(tokens, arr)
			i = end
			continue
		}

		// Number (including negative and decimal).
		if ch == '-' || ch == '+' || ch == '.' || (ch >= '0' && ch <= '9') {
			start := i
			if ch == '-' || ch == '+' {
				i++
			}
			for i < n && ((s[i] >= '0' && s[i] <= '9') || s[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, value: s[start:i]})
			continue
		}

		// Name object: not needed as a token, skip it.
		if ch == '/' {
			i++
			for i < n && s[i] != ' ' && s[i] != '\t' && s[i] != '\r' && s[i] != '\n' &&
				s[i] != '/' && s[i] != '(' && s[i] != '[' && s[i] != '<' {
				i++
			}
			continue
		}

		// Hex string <...> or dictionary <<...>>.
		if ch == '<' {
			if i+1 < n && s[i+1] == '<' {
				depth := 0
				for i < n {
					if s[i] == '<' {
						depth++
					} else if s[i] == '>' {
						depth--
						if depth == 0 {
							i++
							break
						}
					}
					i++
				}
				continue
			}
			j := i + 1
			for j < n && s[j] != '>' {
				j++
			}
			tokens = append(tokens, token{kind: tokHex, value: s[i+1:j]})
			if j < n {
				j++
			}
			i = j
			continue
		}

		// Skip stray closers.
		if ch == ']' || ch == '>' {
			i++
			continue
		}

		// Keyword / operator.
		start := i
		for i < n && s[i] != ' ' && s[i] != '\t' && s[i] != '\r' && s[i] != '\n' &&
			s[i] != '(' && s[i] != '[' && s[i] != '/' && s[i] != '<' {
			i++
		}
		word := s[start:i]
		if word != "" {
			tokens = append(tokens, token{kind: tokOperator, value: word})
		}
	}

	return tokens
}

// readString reads a parenthesized string starting at s[pos]=='(' and returns
// the string content and the index after the closing ')'.
func readString(s string, pos int) (string, int) {
	var buf strings.Builder
	i := pos + 1 // skip opening '('
	depth := 1
	n := len(s)

	for i < n && depth > 0 {
		ch := s[i]
		if ch == '\\' && i+1 < n {
			i++
			next := s[i]
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case '(', ')', '\\':
				buf.WriteByte(next)
			default:
				// Octal escape or unknown, just emit.
				if next >= '0' && next <= '7' {
					oct := string(next)
					for j := 0; j < 2 && i+1 < n && s[i+1] >= '0' && s[i+1] <= '7'; j++ {
						i++
						oct += string(s[i])
					}
					val, _ := strconv.ParseInt(oct, 8, 32)
					buf.WriteByte(byte(val))
				} else {
					buf.WriteByte(next)
				}
			}
		} else if ch == '(' {
			depth++
			buf.WriteByte(ch)
		} else if ch == ')' {
			depth--
			if depth > 0 {
				buf.WriteByte(ch)
			}
		} else {
			buf.WriteByte(ch)
		}
		i++
	}

	return buf.String(), i
}

// readArray reads a [...] array starting at s[pos]=='[' and returns a tokArray
// token with children, plus the index after the closing ']'.
func readArray(s string, pos int) (token, int) {
	var children []token
	i := pos + 1 // skip '['
	n := len(s)

	for i < n {
		ch := s[i]

		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			i++
			continue
		}

		if ch == ']' {
			i++
			break
		}

		if ch == '(' {
			str, end := readString(s, i)
			children = append(children, token{kind: tokString, value: str})
			i = end
			continue
		}

		if ch == '<' {
			j := i + 1
			for j < n && s[j] != '>' {
				j++
			}
			children = append(children, token{kind: tokHex, value: s[i+1:j]})
			if j < n {
				j++
			}
			i = j
			continue
		}

		// Number.
		if ch == '-' || ch == '+' || ch == '.' || (ch >= '0' && ch <= '9') {
			start := i
			if ch == '-' || ch == '+' {
				i++
			}
			for i < n && ((s[i] >= '0' && s[i] <= '9') || s[i] == '.') {
				i++
			}
			children = append(children, token{kind: tokNumber, value: s[start:i]})
			continue
		}

		// Skip anything else inside the array.
		i++
	}

	return token{kind: tokArray, children: children}, i
}
