package parser

import (
	"reflect"
	"testing"
	"time"

	"github.com/PavelSyomin/oks-checker/geo"
	"github.com/PavelSyomin/oks-checker/morph"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	dict, err := morph.NewDictionary()
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}
	index, err := geo.NewIndex(dict)
	if err != nil {
		t.Fatalf("load geo index: %v", err)
	}
	return New(dict, index)
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"40", 40},
		{"3.5", 3.5},
		{"120 500,5", 120500.5},
		{"1 200", 1200},
		{"", 0},
		{"н/д", 0},
	}
	for _, tt := range tests {
		if got := parseDecimal(tt.in); got != tt.want {
			t.Errorf("parseDecimal(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeRightsholder(t *testing.T) {
	p := newTestParser(t)
	tests := []struct {
		name       string
		raw        Raw
		variant    Variant
		holder     any
		holderType any
	}{
		{
			name:       "legal entity with dated reference",
			raw:        found("Общество с ограниченной ответственностью «Ромашка» от 12.05.2017 № РД-16-123"),
			variant:    VariantRU,
			holder:     "Общество с ограниченной ответственностью «Ромашка»",
			holderType: TypeLegalEntity,
		},
		{
			name:       "request prefix stripped and noun lemmatized",
			raw:        found("заявления гражданина Иванова Ивана Ивановича"),
			variant:    VariantRF,
			holder:     "гражданин Иванова Ивана Ивановича",
			holderType: TypeIndividual,
		},
		{
			name:       "genitive phrase agrees with its noun",
			raw:        found("заявления Акционерного общества «Крост» от 03.02.2021"),
			variant:    VariantRF,
			holder:     "акционерное общество «Крост»",
			holderType: TypeLegalEntity,
		},
		{
			name:    "prefix kept in the RU template",
			raw:     found("заявления поданы не были"),
			variant: VariantRU,
			holder:  "заявления поданы не были",
			// No keywords and four words: falls back to an individual.
			holderType: TypeIndividual,
		},
		{
			name:       "absent",
			raw:        absent(),
			variant:    VariantRU,
			holder:     nil,
			holderType: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holder, holderType := p.normalizeRightsholder(tt.raw, tt.variant)
			if !reflect.DeepEqual(holder, tt.holder) {
				t.Errorf("holder: got %v, want %v", holder, tt.holder)
			}
			if !reflect.DeepEqual(holderType, tt.holderType) {
				t.Errorf("type: got %v, want %v", holderType, tt.holderType)
			}
		})
	}
}

func TestStripRequestPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"заявления ООО «Ромашка»", "ООО «Ромашка»"},
		{"Обращения гражданина Иванова", "гражданина Иванова"},
		{"Общество с ограниченной ответственностью", "Общество с ограниченной ответственностью"},
		{"заявления", "заявления"},
	}
	for _, tt := range tests {
		if got := stripRequestPrefix(tt.in); got != tt.want {
			t.Errorf("stripRequestPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyRightsholder(t *testing.T) {
	p := newTestParser(t)
	tests := []struct {
		in   string
		want string
	}{
		{"Акционерное общество «Мосинжпроект»", TypeLegalEntity},
		{"Компании «Сити»", TypeLegalEntity},
		{"гражданка Петрова", TypeIndividual},
		{"гражданин", TypeIndividual},
		{"«Ромашка»", TypeLegalEntity},
		{"Иванов Петр", TypeIndividual},
		{"Иванов Петр Сергеевич", TypeIndividual},
		{"ГУП Мосгортранс", TypeLegalEntity},
		{"Иванов", TypeIndividual},
	}
	for _, tt := range tests {
		if got := p.classifyRightsholder(tt.in); got != tt.want {
			t.Errorf("classifyRightsholder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLocation(t *testing.T) {
	p := newTestParser(t)
	tests := []struct {
		name       string
		raw        Raw
		settlement any
		street     any
		district   any
	}{
		{
			name:       "settlement street and district",
			raw:        found("город Москва, поселение Сосенское, улица Александры Монаховой, з/у 11"),
			settlement: "Сосенское",
			street:     "улица Александры Монаховой",
			district:   "Новомосковский административный округ",
		},
		{
			name:       "city district",
			raw:        found("город Москва, район Митино, улица Барышиха, вл. 2"),
			settlement: "Митино",
			street:     "улица Барышиха",
			district:   "Северо-Западный административный округ",
		},
		{
			name: "no street nulls the triple",
			raw:  found("город Москва, поселение Сосенское"),
		},
		{
			name: "unresolved settlement nulls the triple",
			raw:  found("город Москва, поселение Мирное, улица Ленина"),
		},
		{
			name: "absent",
			raw:  absent(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settlement, street, district := p.normalizeLocation(tt.raw)
			if !reflect.DeepEqual(settlement, tt.settlement) {
				t.Errorf("settlement: got %v, want %v", settlement, tt.settlement)
			}
			if !reflect.DeepEqual(street, tt.street) {
				t.Errorf("street: got %v, want %v", street, tt.street)
			}
			if !reflect.DeepEqual(district, tt.district) {
				t.Errorf("district: got %v, want %v", district, tt.district)
			}
		})
	}
}

func TestNormalizeUseKinds(t *testing.T) {
	tests := []struct {
		name           string
		raw            Raw
		codes          any
		classification any
	}{
		{
			name:           "residential code",
			raw:            found("Многоэтажная жилая застройка - 2.6"),
			codes:          "2.6",
			classification: UseResidential,
		},
		{
			name:           "gardening counts residential",
			raw:            found("Ведение садоводства - 13.2"),
			codes:          "13.2",
			classification: UseResidential,
		},
		{
			name:           "mixed codes",
			raw:            found("Жилая застройка - 2.6, деловое управление - 4.1"),
			codes:          "2.6, 4.1",
			classification: UseMixed,
		},
		{
			name:           "non-residential codes",
			raw:            found("Деловое управление - 4.1, склады - 6.9"),
			codes:          "4.1, 6.9",
			classification: UseNonResidential,
		},
		{
			name:           "regulation exemption",
			raw:            found("На земельный участок действие градостроительного регламента не распространяется"),
			codes:          "На земельный участок действие градостроительного регламента не распространяется",
			classification: UseNonResidential,
		},
		{
			name: "no codes no phrase",
			raw:  found("виды не установлены"),
		},
		{
			name: "absent",
			raw:  absent(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes, classification := normalizeUseKinds(tt.raw)
			if !reflect.DeepEqual(codes, tt.codes) {
				t.Errorf("codes: got %v, want %v", codes, tt.codes)
			}
			if !reflect.DeepEqual(classification, tt.classification) {
				t.Errorf("classification: got %v, want %v", classification, tt.classification)
			}
		})
	}
}

func TestNormalizeParcelArea(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
		want any
	}{
		{"square meters", found("1200 кв. м"), 1200},
		{"hectares scaled", found("1,5 га"), 10000},
		{"hectares whole", found("около 2 га"), 20000},
		{"no digits", found("не указана"), nil},
		{"absent", absent(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeParcelArea(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIssueDate(t *testing.T) {
	text := map[int]string{
		1: "титульный лист, Дата выдачи не здесь: 01.01.2000",
		2: "Градостроительный план подготовлен\nДата выдачи\n05.03.2021",
	}
	got, ok := issueDate(text)
	if !ok {
		t.Fatal("date not found")
	}
	if want := date(2021, 3, 5); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestIssueDateSkipsMalformed(t *testing.T) {
	text := map[int]string{
		1: "Градостроительный план земельного участка подготовлен\nДата выдачи 99.99.2021, зарегистрирован 15.06.2019",
	}
	got, ok := issueDate(text)
	if !ok {
		t.Fatal("date not found")
	}
	if want := date(2019, 6, 15); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestIssueDateMissing(t *testing.T) {
	text := map[int]string{1: "Дата выдачи 01.02.2020"}
	if _, ok := issueDate(text); ok {
		t.Error("found a date on a page without the prepared label")
	}
}

func TestExpiryDate(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  time.Time
	}{
		{"term ends before the windows", date(2015, 5, 20), date(2018, 5, 20)},
		{"term ends inside the first window", date(2017, 6, 1), date(2021, 6, 1)},
		{"window bounds are inclusive", date(2018, 1, 1), date(2022, 1, 1)},
		{"term ends between the windows", date(2018, 3, 15), date(2021, 3, 15)},
		{"term ends inside the second window", date(2019, 5, 1), date(2023, 5, 1)},
		{"second window upper bound", date(2020, 1, 1), date(2024, 1, 1)},
		{"term ends after the windows", date(2020, 2, 10), date(2023, 2, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expiryDate(tt.start); !got.Equal(tt.want) {
				t.Errorf("expiryDate(%v) = %v, want %v", tt.start, got, tt.want)
			}
		})
	}
}

func TestPermitStatus(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 30, 0, 0, time.UTC)
	pages := map[int]string{1: "стр. 1", 2: "стр. 2"}
	tests := []struct {
		name string
		text map[int]string
		end  time.Time
		want string
	}{
		{"classified stub", map[int]string{1: "Для служебного пользования"}, time.Time{}, StatusClassified},
		{"marker on a full document is not a stub", map[int]string{1: "Для служебного пользования", 2: "стр. 2"}, time.Time{}, StatusUnknown},
		{"no end date", pages, time.Time{}, StatusUnknown},
		{"active", pages, date(2024, 1, 1), StatusActive},
		{"expires today", pages, date(2023, 6, 15), StatusActive},
		{"expired", pages, date(2020, 1, 1), StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := permitStatus(tt.text, tt.end, now); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResidentialFloorArea(t *testing.T) {
	tests := []struct {
		name string
		b    Breakdown
		want float64
	}{
		{"explicit", Breakdown{Total: 500, Residential: 200, NonResident: 100}, 200},
		{"derived from the residue", Breakdown{Total: 500, NonResident: 100}, 400},
		{"negative residue floors at zero", Breakdown{Total: 100, NonResident: 300}, 0},
		{"empty", Breakdown{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := residentialFloorArea(tt.b); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregates(t *testing.T) {
	subzones := map[int]Subzone{
		1: {
			FloorArea: Breakdown{Total: 50000, Residential: 30000},
			TotalArea: Breakdown{Total: 60000, Underground: 10000},
		},
		2: {
			FloorArea: Breakdown{Total: 20000, NonResident: 5000},
			TotalArea: Breakdown{Total: 25000},
		},
	}
	floorTotal, floorResidential, areaTotal, underground := aggregates(subzones)
	if floorTotal != 70000 {
		t.Errorf("floor total: got %v, want 70000", floorTotal)
	}
	if floorResidential != 45000 {
		t.Errorf("residential: got %v, want 45000", floorResidential)
	}
	if areaTotal != 85000 {
		t.Errorf("area total: got %v, want 85000", areaTotal)
	}
	if underground != 10000 {
		t.Errorf("underground: got %v, want 10000", underground)
	}
}
