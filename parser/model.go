package parser

import (
	"bytes"
	"encoding/json"
)

// Source is the raw material extracted from one PDF document: page text keyed
// by 1-based page number, plus every tabular block found in the content
// streams. Table shapes are untrusted and validated before use.
type Source struct {
	Text   map[int]string `json:"text"`
	Tables []RawTable     `json:"tables"`
}

// RawTable is a grid of string cells. The first row is treated as the header
// by the components that recognize tables by their captions.
type RawTable struct {
	Cells [][]string `json:"cells"`
}

// Header returns the first cell of the first row, or "" for degenerate grids.
func (t RawTable) Header() string {
	if len(t.Cells) == 0 || len(t.Cells[0]) == 0 {
		return ""
	}
	return t.Cells[0][0]
}

// Variant identifies the permit template family, selected by the prefix of
// the document number. Each variant has its own anchor map.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantRU              // Moscow city form, numbers like RU77-105000-047176
	VariantRF              // federal form, numbers like РФ-77-2-05-3-08-2021-1234
)

func (v Variant) String() string {
	switch v {
	case VariantRU:
		return "RU"
	case VariantRF:
		return "РФ"
	}
	return ""
}

// State says what happened when a raw field was looked up. Absent and
// malformed fields never abort the parse; the normalizer branches on the
// state instead.
type State int

const (
	StateAbsent State = iota
	StateFound
	StateMalformed
)

// Raw is one extracted field value together with its extraction outcome.
type Raw struct {
	Value string
	State State
}

func found(v string) Raw { return Raw{Value: v, State: StateFound} }

func absent() Raw { return Raw{State: StateAbsent} }

func malformed() Raw { return Raw{State: StateMalformed} }

// Ok reports whether the field was located in the document.
func (r Raw) Ok() bool { return r.State == StateFound }

// Breakdown holds the built-area figures of one subzone, in square meters.
// Values that could not be derived stay zero. Underground is only ever set
// in the total-area breakdown.
type Breakdown struct {
	Total       float64 `json:"Всего"`
	Residential float64 `json:"Жилой части"`
	NonResident float64 `json:"Нежилой части"`
	BuiltIn     float64 `json:"Встроенно-пристроенных помещений"`
	Parking     float64 `json:"Гаражей и автостоянок"`
	Underground float64 `json:"Подземного пространства"`
}

// Subzone is one row group of the development-limits table. String fields
// hold "-" when the source cell carried nothing usable.
type Subzone struct {
	Number      string    `json:"Номер"`
	Area        string    `json:"Площадь"`
	Description string    `json:"Назначение"`
	MaxHeight   string    `json:"Максимальная высота"`
	MaxFloors   string    `json:"Предельное количество этажей"`
	MaxPercent  string    `json:"Максимальный процент застройки"`
	MaxDensity  string    `json:"Предельная плотность застройки"`
	FloorArea   Breakdown `json:"Суммарная поэтажная площадь"`
	TotalArea   Breakdown `json:"Общая площадь"`
}

// WholeParcelKey marks the implicit subzone used when the limits table has no
// title rows: the whole parcel is one zone.
const WholeParcelKey = -1

// Field is one labeled value of the final report. Values are strings, ints,
// string slices, or nil for fields that could not be determined.
type Field struct {
	Label string
	Value any
}

// Section groups the report fields under one of the fixed section titles.
type Section struct {
	Title  string
	Fields []Field
}

// Report is the final nested record: section title to labeled fields, in the
// fixed document order. It is built once per parse and not mutated after.
type Report struct {
	Sections []Section
}

// Section titles, in output order.
const (
	SectionParticulars = "Реквизиты градостроительного плана"
	SectionTerritory   = "Территория и расположение"
	SectionUseKinds    = "Виды разрешенного использования"
	SectionAreas       = "Площадь и подзоны"
	SectionLimits      = "Предельные параметры застройки"
	SectionBuildings   = "Параметры объектов капитального строительства"
	SectionExisting    = "Существующие объекты капитального строительства"
	SectionHeritage    = "Объекты культурного наследия"
)

// SectionOrder lists the report sections in their canonical order, for
// exporters that need a stable column layout.
var SectionOrder = []string{
	SectionParticulars,
	SectionTerritory,
	SectionUseKinds,
	SectionAreas,
	SectionLimits,
	SectionBuildings,
	SectionExisting,
	SectionHeritage,
}

// Lookup returns the value of a labeled field, or nil when the section or
// label is not present.
func (r Report) Lookup(section, label string) any {
	for _, s := range r.Sections {
		if s.Title != section {
			continue
		}
		for _, f := range s.Fields {
			if f.Label == label {
				return f.Value
			}
		}
	}
	return nil
}

// MarshalJSON emits the report as a nested object, preserving section and
// field order. encoding/json would sort map keys alphabetically, which
// scrambles the document order the sections follow.
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range r.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		title, err := marshalRaw(s.Title)
		if err != nil {
			return nil, err
		}
		buf.Write(title)
		buf.WriteByte(':')
		buf.WriteByte('{')
		for j, f := range s.Fields {
			if j > 0 {
				buf.WriteByte(',')
			}
			label, err := marshalRaw(f.Label)
			if err != nil {
				return nil, err
			}
			value, err := marshalRaw(f.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(label)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalRaw marshals without the HTML escaping json.Marshal applies by
// default. Consumers that want escaping back get it from their own encoder.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
