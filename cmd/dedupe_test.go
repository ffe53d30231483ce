package cmd

import (
	"testing"

	"github.com/PavelSyomin/oks-checker/parser"
)

// permit builds a minimal parsed document for duplicate detection. Empty
// cadastral or issued values stand for fields the parser could not extract.
func permit(id, cadastral, issued string) document {
	var cad, date any
	if cadastral != "" {
		cad = cadastral
	}
	if issued != "" {
		date = issued
	}
	return document{
		path: id + ".pdf",
		id:   id,
		report: parser.Report{Sections: []parser.Section{
			{Title: parser.SectionParticulars, Fields: []parser.Field{
				{Label: "Дата выдачи", Value: date},
			}},
			{Title: parser.SectionTerritory, Fields: []parser.Field{
				{Label: "Кадастровый номер", Value: cad},
			}},
		}},
	}
}

func TestFindDuplicates_LatestWins(t *testing.T) {
	docs := []document{
		permit("RU77-101000-001", "77:01:0001001:10", "2018-03-12"),
		permit("RU77-101000-002", "77:01:0001001:10", "2021-06-30"),
	}

	groups := findDuplicates(docs)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.cadastral != "77:01:0001001:10" {
		t.Errorf("cadastral = %q, want 77:01:0001001:10", g.cadastral)
	}
	if g.keeper.id != "RU77-101000-002" {
		t.Errorf("keeper = %q, want RU77-101000-002 (latest issue date)", g.keeper.id)
	}
	if len(g.superseded) != 1 || g.superseded[0].id != "RU77-101000-001" {
		t.Errorf("superseded = %v, want [RU77-101000-001]", g.superseded)
	}
}

func TestFindDuplicates_DistinctParcels(t *testing.T) {
	docs := []document{
		permit("RU77-101000-001", "77:01:0001001:10", "2018-03-12"),
		permit("RU77-101000-002", "77:01:0001001:11", "2021-06-30"),
	}

	if groups := findDuplicates(docs); len(groups) != 0 {
		t.Fatalf("got %d groups, want 0 (different parcels)", len(groups))
	}
}

func TestFindDuplicates_SkipsMissingCadastral(t *testing.T) {
	// Permits without a cadastral number cannot be matched to anything.
	docs := []document{
		permit("RU77-101000-001", "", "2018-03-12"),
		permit("RU77-101000-002", "", "2021-06-30"),
	}

	if groups := findDuplicates(docs); len(groups) != 0 {
		t.Fatalf("got %d groups, want 0 (no cadastral numbers)", len(groups))
	}
}

func TestFindDuplicates_UndatedLoses(t *testing.T) {
	docs := []document{
		permit("RU77-101000-003", "77:06:0004002:77", ""),
		permit("RU77-101000-004", "77:06:0004002:77", "2015-01-09"),
	}

	groups := findDuplicates(docs)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].keeper.id != "RU77-101000-004" {
		t.Errorf("keeper = %q, want RU77-101000-004 (dated permit)", groups[0].keeper.id)
	}
}

func TestFindDuplicates_ThreeWayGroup(t *testing.T) {
	docs := []document{
		permit("RU77-101000-005", "77:02:0002005:3", "2016-11-01"),
		permit("RU77-101000-006", "77:02:0002005:3", "2019-02-14"),
		permit("RU77-101000-007", "77:02:0002005:3", "2017-08-21"),
	}

	groups := findDuplicates(docs)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.keeper.id != "RU77-101000-006" {
		t.Errorf("keeper = %q, want RU77-101000-006", g.keeper.id)
	}
	if len(g.superseded) != 2 {
		t.Errorf("got %d superseded, want 2", len(g.superseded))
	}
}

func TestFindDuplicates_SortedByCadastral(t *testing.T) {
	docs := []document{
		permit("RU77-101000-011", "77:09:0005010:20", "2018-01-01"),
		permit("RU77-101000-012", "77:09:0005010:20", "2019-01-01"),
		permit("RU77-101000-013", "77:01:0001001:10", "2018-01-01"),
		permit("RU77-101000-014", "77:01:0001001:10", "2019-01-01"),
	}

	groups := findDuplicates(docs)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].cadastral != "77:01:0001001:10" || groups[1].cadastral != "77:09:0005010:20" {
		t.Errorf("groups out of order: %q, %q", groups[0].cadastral, groups[1].cadastral)
	}
}
