package geo

import (
	"testing"

	"github.com/PavelSyomin/oks-checker/morph"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	d, err := morph.NewDictionary()
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}
	x, err := NewIndex(d)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return x
}

func TestResolve(t *testing.T) {
	x := newTestIndex(t)
	tests := []struct {
		name string
		want string
	}{
		{"Сосенское", "Новомосковский административный округ"},
		{"Первомайское", "Троицкий административный округ"},
		{"Троицк", "Троицкий административный округ"},
		{"Солнцево", "Западный административный округ"},
		{"Митино", "Северо-Западный административный округ"},
		{"Марьино", "Юго-Восточный административный округ"},
		{"Северное Бутово", "Юго-Западный административный округ"},
		{"Крюково", "Зеленоградский административный округ"},
	}
	for _, tt := range tests {
		got, ok := x.Resolve(tt.name)
		if !ok {
			t.Errorf("Resolve(%q): not found", tt.name)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolveSpelling(t *testing.T) {
	x := newTestIndex(t)
	// scanned text drops the diaeresis and sheds surrounding spaces
	for _, name := range []string{"Десеновское", "Десёновское", "  Кленовское ", "ЧЕРЕМУШКИ"} {
		if _, ok := x.Resolve(name); !ok {
			t.Errorf("Resolve(%q): not found", name)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	x := newTestIndex(t)
	for _, name := range []string{"", "Мытищи", "Сосенское поселение"} {
		if district, ok := x.Resolve(name); ok {
			t.Errorf("Resolve(%q) = %q, want miss", name, district)
		}
	}
}

func TestCompoundDistrictNames(t *testing.T) {
	x := newTestIndex(t)
	// "Западный административный округ" is a substring of the
	// Северо-Западный records; the longer name must win.
	got, ok := x.Resolve("Строгино")
	if !ok {
		t.Fatal("Resolve(Строгино): not found")
	}
	if got != "Северо-Западный административный округ" {
		t.Errorf("Resolve(Строгино) = %q", got)
	}
	got, ok = x.Resolve("Измайлово")
	if !ok {
		t.Fatal("Resolve(Измайлово): not found")
	}
	if got != "Восточный административный округ" {
		t.Errorf("Resolve(Измайлово) = %q", got)
	}
}
