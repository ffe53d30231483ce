// Package geo resolves Moscow settlements to their administrative districts.
// The reference tables are embedded: districts.csv keys each district name by
// its okato code prefix, settlements.csv carries per-settlement okato codes
// and the reference record naming the settlement's administrative chain.
package geo

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	_ "embed"

	"github.com/PavelSyomin/oks-checker/morph"
)

//go:embed data/districts.csv
var districtData []byte

//go:embed data/settlements.csv
var settlementData []byte

type district struct {
	okato      string
	name       string
	normalized string // dictionary form, lowercased, for record matching
}

type settlement struct {
	okato  string
	record string
}

// Index is the loaded reference table. Read-only after construction, safe
// for concurrent use.
type Index struct {
	districts   []district
	settlements map[string]settlement
}

// NewIndex loads the embedded reference tables and normalizes district
// names to dictionary form with the given analyzer.
func NewIndex(a morph.Analyzer) (*Index, error) {
	x := &Index{settlements: make(map[string]settlement)}

	r := csv.NewReader(bytes.NewReader(districtData))
	r.Comment = '#'
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("districts.csv: %w", err)
		}
		if len(rec) != 2 {
			return nil, fmt.Errorf("districts.csv: want okato,name, got %d columns", len(rec))
		}
		x.districts = append(x.districts, district{
			okato:      rec[0],
			name:       rec[1],
			normalized: strings.ToLower(morph.NormalizePhrase(a, rec[1])),
		})
	}
	sort.Slice(x.districts, func(i, j int) bool { return x.districts[i].okato < x.districts[j].okato })

	r = csv.NewReader(bytes.NewReader(settlementData))
	r.Comment = '#'
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("settlements.csv: %w", err)
		}
		if len(rec) != 3 {
			return nil, fmt.Errorf("settlements.csv: want name,okato,record, got %d columns", len(rec))
		}
		s := settlement{okato: rec[1], record: rec[2]}
		if !x.knownPrefix(s.okato) {
			return nil, fmt.Errorf("settlements.csv: %s: okato %s matches no district", rec[0], s.okato)
		}
		x.settlements[settlementKey(rec[0])] = s
	}

	return x, nil
}

// settlementKey folds case and "ё", which the scanned documents spell
// inconsistently.
func settlementKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "ё", "е")
}

func (x *Index) knownPrefix(okato string) bool {
	for _, d := range x.districts {
		if strings.HasPrefix(okato, d.okato) {
			return true
		}
	}
	return false
}

// Resolve maps a settlement name to its administrative district. The match
// scans the settlement's reference record for a district name in dictionary
// form, preferring the longest match ("Северо-Западный" over "Западный").
// Unknown settlements and unmatched records report false.
func (x *Index) Resolve(name string) (string, bool) {
	s, ok := x.settlements[settlementKey(name)]
	if !ok {
		return "", false
	}
	record := strings.ToLower(s.record)
	best := -1
	for i, d := range x.districts {
		if !strings.Contains(record, d.normalized) {
			continue
		}
		if best < 0 || len(d.normalized) > len(x.districts[best].normalized) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return x.districts[best].name, true
}
