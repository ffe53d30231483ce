package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/PavelSyomin/oks-checker/parser"
)

// cadastralNumber returns the parcel's cadastral number, or "" when the
// parser could not extract one.
func (d document) cadastralNumber() string {
	if v, ok := d.report.Lookup(parser.SectionTerritory, "Кадастровый номер").(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// issueDate returns the issue date as a YYYY-MM-DD string, or "" when the
// date is unknown. The ISO form makes string comparison chronological.
func (d document) issueDate() string {
	if v, ok := d.report.Lookup(parser.SectionParticulars, "Дата выдачи").(string); ok {
		return v
	}
	return ""
}

// duplicateGroup is a set of permits issued for the same parcel. A new plan
// supersedes the earlier ones, so only the keeper is worth reporting on.
type duplicateGroup struct {
	cadastral  string
	keeper     document
	superseded []document
}

// findDuplicates groups parsed documents by cadastral number. Groups with
// more than one permit are duplicate candidates: the permit with the latest
// issue date is the keeper, the rest are superseded. A document without a
// cadastral number is never grouped; a document without an issue date loses
// to any dated one.
func findDuplicates(docs []document) []duplicateGroup {
	byCadastral := make(map[string][]document)
	for _, d := range docs {
		if num := d.cadastralNumber(); num != "" {
			byCadastral[num] = append(byCadastral[num], d)
		}
	}

	var groups []duplicateGroup
	for num, group := range byCadastral {
		if len(group) < 2 {
			continue
		}
		keep := 0
		for i := 1; i < len(group); i++ {
			if group[i].issueDate() > group[keep].issueDate() {
				keep = i
			}
		}
		g := duplicateGroup{cadastral: num, keeper: group[keep]}
		for i, d := range group {
			if i != keep {
				g.superseded = append(g.superseded, d)
			}
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].cadastral < groups[j].cadastral
	})
	return groups
}

func dateOrDash(date string) string {
	if date == "" {
		return "-"
	}
	return date
}

// deduplicate prompts for every duplicate group and drops the superseded
// permits the user confirms. Answering a(ll) accepts the current and every
// remaining group. The kept documents come back in their original order.
func deduplicate(docs []document) []document {
	groups := findDuplicates(docs)
	if len(groups) == 0 {
		return docs
	}

	drop := make(map[string]bool)
	scanner := bufio.NewScanner(os.Stdin)
	acceptAll := false
	for _, g := range groups {
		if acceptAll {
			fmt.Fprintf(os.Stderr, "  %s: keeping %s, dropping %d\n",
				g.cadastral, g.keeper.id, len(g.superseded))
			for _, d := range g.superseded {
				drop[d.path] = true
			}
			continue
		}

		fmt.Fprintf(os.Stderr, "\nDuplicate permits for cadastral number %s:\n", g.cadastral)
		fmt.Fprintf(os.Stderr, "  %-30s issued %s (keep)\n", g.keeper.id, dateOrDash(g.keeper.issueDate()))
		for _, d := range g.superseded {
			fmt.Fprintf(os.Stderr, "  %-30s issued %s\n", d.id, dateOrDash(d.issueDate()))
		}
		fmt.Fprintf(os.Stderr, "Drop the superseded permits? [y/N/a(ll)]: ")

		if !scanner.Scan() {
			break
		}
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "a", "all":
			acceptAll = true
		case "y", "yes":
		default:
			continue
		}
		for _, d := range g.superseded {
			drop[d.path] = true
		}
	}

	if len(drop) == 0 {
		return docs
	}

	kept := make([]document, 0, len(docs))
	for _, d := range docs {
		if !drop[d.path] {
			kept = append(kept, d)
		}
	}
	fmt.Fprintf(os.Stderr, "dedupe: dropped %d superseded permits\n", len(drop))
	return kept
}
