package parser

import (
	"reflect"
	"testing"
)

func TestSplitLines(t *testing.T) {
	text := map[int]string{
		2: "третья строка\n\n  четвертая  ",
		1: "первая строка\nвторая строка",
	}
	got := splitLines(text)
	want := []string{"первая строка", "вторая строка", "третья строка", "четвертая"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDocumentNumber(t *testing.T) {
	tests := []struct {
		name string
		text map[int]string
		want string
	}{
		{
			name: "marker line on page 1",
			text: map[int]string{1: "Градостроительный план\n№ RU77-105000-047176\nвыдан"},
			want: "RU77-105000-047176",
		},
		{
			name: "no marker",
			text: map[int]string{1: "Градостроительный план\nбез номера"},
			want: "",
		},
		{
			name: "missing first page",
			text: map[int]string{2: "№ RU77-000"},
			want: "",
		},
		{
			name: "empty input",
			text: nil,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documentNumber(tt.text); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectVariant(t *testing.T) {
	tests := []struct {
		number string
		want   Variant
	}{
		{"RU77-105000-047176", VariantRU},
		{"РФ-77-2-05-3-08-2021-1234", VariantRF},
		{"XX-00-000", VariantUnknown},
		{"", VariantUnknown},
	}
	for _, tt := range tests {
		if got := detectVariant(tt.number); got != tt.want {
			t.Errorf("detectVariant(%q) = %v, want %v", tt.number, got, tt.want)
		}
	}
}

func TestExtractFieldOneLine(t *testing.T) {
	lines := []string{
		"Градостроительный план подготовлен",
		"Общество с ограниченной ответственностью «Лидер»",
		"Местонахождение земельного участка",
	}
	fields := extract(lines, ruAnchors)

	r := fields[fieldRightsholder]
	if !r.Ok() {
		t.Fatal("rightsholder: not found")
	}
	assertEqual(t, "rightsholder", r.Value, "Общество с ограниченной ответственностью «Лидер»")
}

func TestExtractFieldUntilStop(t *testing.T) {
	lines := []string{
		"Местонахождение земельного участка",
		"город Москва, поселение Сосенское,",
		"улица Александры Монаховой",
		"Кадастровый номер земельного участка",
		"77:17:0120316:5221",
	}
	fields := extract(lines, ruAnchors)

	loc := fields[fieldLocation]
	if !loc.Ok() {
		t.Fatal("location: not found")
	}
	assertEqual(t, "location", loc.Value, "город Москва, поселение Сосенское, улица Александры Монаховой")

	cad := fields[fieldCadastralNumber]
	if !cad.Ok() {
		t.Fatal("cadastral number: not found")
	}
	assertEqual(t, "cadastral number", cad.Value, "77:17:0120316:5221")
}

func TestExtractFieldMissingStopRunsToEnd(t *testing.T) {
	// Without its stop anchor the value is the whole tail of the input.
	lines := []string{
		"Основные виды разрешенного использования",
		"2.6 Многоэтажная жилая застройка",
		"4.0 Деловое управление",
	}
	fields := extract(lines, ruAnchors)

	use := fields[fieldUseKinds]
	if !use.Ok() {
		t.Fatal("use kinds: not found")
	}
	assertEqual(t, "use kinds", use.Value, "2.6 Многоэтажная жилая застройка 4.0 Деловое управление")
}

func TestExtractFieldAbsent(t *testing.T) {
	lines := []string{"никаких якорей здесь нет"}
	fields := extract(lines, ruAnchors)
	for name, r := range fields {
		if r.State != StateAbsent {
			t.Errorf("%s: state %v with %q, want StateAbsent", name, r.State, r.Value)
		}
	}
}

func TestExtractFieldAnchorAtEnd(t *testing.T) {
	// Anchor on the last line puts the value position past the input: the
	// field was located but carries nothing usable.
	lines := []string{"Площадь земельного участка"}
	fields := extract(lines, ruAnchors)
	if got := fields[fieldArea].State; got != StateMalformed {
		t.Errorf("area: state %v, want StateMalformed", got)
	}
}

func TestExtractFieldStopRightAfterAnchor(t *testing.T) {
	// The stop anchor directly below the start anchor leaves no value lines.
	lines := []string{
		"Местонахождение земельного участка",
		"Кадастровый номер земельного участка",
		"77:17:0120316:5221",
	}
	fields := extract(lines, ruAnchors)
	if got := fields[fieldLocation].State; got != StateMalformed {
		t.Errorf("location: state %v, want StateMalformed", got)
	}
}

func TestExtractPrefixMatch(t *testing.T) {
	// Anchors match by prefix: trailing numbering and noise do not matter.
	lines := []string{
		"Площадь земельного участка (кв. м)",
		"1200 кв. м",
	}
	fields := extract(lines, ruAnchors)
	if !fields[fieldArea].Ok() {
		t.Fatal("area: not found")
	}
	assertEqual(t, "area", fields[fieldArea].Value, "1200 кв. м")
}

func TestExtractNilAnchors(t *testing.T) {
	fields := extract([]string{"текст"}, anchorsFor(VariantUnknown))
	if len(fields) != 0 {
		t.Errorf("expected no fields for unknown variant, got %v", fields)
	}
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
