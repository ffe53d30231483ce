package morph

import "testing"

func newTestDict(t *testing.T) *Dictionary {
	t.Helper()
	d, err := NewDictionary()
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}
	return d
}

func TestParseNoun(t *testing.T) {
	d := newTestDict(t)
	tests := []struct {
		word   string
		lemma  string
		gender Gender
	}{
		{"общества", "общество", GenderNeuter},
		{"Общество", "общество", GenderNeuter},
		{"ответственностью", "ответственность", GenderFeminine},
		{"фондом", "фонд", GenderMasculine},
		{"компании", "компания", GenderFeminine},
	}
	for _, tt := range tests {
		info, ok := d.Parse(tt.word)
		if !ok {
			t.Errorf("Parse(%q): not found", tt.word)
			continue
		}
		if info.POS != POSNoun {
			t.Errorf("Parse(%q): POS = %v, want noun", tt.word, info.POS)
		}
		if info.Lemma != tt.lemma {
			t.Errorf("Parse(%q): lemma = %q, want %q", tt.word, info.Lemma, tt.lemma)
		}
		if info.Gender != tt.gender {
			t.Errorf("Parse(%q): gender = %v, want %v", tt.word, info.Gender, tt.gender)
		}
	}
}

func TestParseAdjective(t *testing.T) {
	d := newTestDict(t)
	tests := []struct {
		word  string
		lemma string
	}{
		{"акционерного", "акционерный"},
		{"ограниченной", "ограниченный"},
		{"казенное", "казенный"},
		{"дочерняя", "дочерний"},
		{"юго-западном", "юго-западный"},
	}
	for _, tt := range tests {
		info, ok := d.Parse(tt.word)
		if !ok {
			t.Errorf("Parse(%q): not found", tt.word)
			continue
		}
		if info.POS != POSAdjective {
			t.Errorf("Parse(%q): POS = %v, want adjective", tt.word, info.POS)
		}
		if info.Lemma != tt.lemma {
			t.Errorf("Parse(%q): lemma = %q, want %q", tt.word, info.Lemma, tt.lemma)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	d := newTestDict(t)
	for _, word := range []string{"Ромашка", "123", "шоссе"} {
		if _, ok := d.Parse(word); ok {
			t.Errorf("Parse(%q): found, want miss", word)
		}
	}
}

func TestInflect(t *testing.T) {
	d := newTestDict(t)
	tests := []struct {
		word   string
		gender Gender
		number Number
		want   string
	}{
		{"акционерного", GenderNeuter, NumberSingular, "акционерное"},
		{"ограниченной", GenderFeminine, NumberSingular, "ограниченная"},
		{"государственным", GenderNeuter, NumberSingular, "государственное"},
		{"дочернего", GenderFeminine, NumberSingular, "дочерняя"},
		{"городским", GenderFeminine, NumberSingular, "городская"},
		{"казенных", GenderMasculine, NumberPlural, "казенные"},
		{"троицкого", GenderMasculine, NumberPlural, "троицкие"},
		{"акционерному", GenderMasculine, NumberSingular, "акционерный"},
	}
	for _, tt := range tests {
		got, ok := d.Inflect(tt.word, tt.gender, tt.number)
		if !ok {
			t.Errorf("Inflect(%q): not found", tt.word)
			continue
		}
		if got != tt.want {
			t.Errorf("Inflect(%q, %v, %v) = %q, want %q", tt.word, tt.gender, tt.number, got, tt.want)
		}
	}
}

func TestNormalizePhrase(t *testing.T) {
	d := newTestDict(t)
	tests := []struct {
		name   string
		phrase string
		want   string
	}{
		{
			name:   "single noun with agreeing adjectives",
			phrase: "акционерного общества",
			want:   "акционерное общество",
		},
		{
			name:   "adjective chain",
			phrase: "государственного бюджетного учреждения",
			want:   "государственное бюджетное учреждение",
		},
		{
			name:   "two nouns left intact",
			phrase: "общества с ограниченной ответственностью",
			want:   "общества с ограниченной ответственностью",
		},
		{
			name:   "quoted name skipped",
			phrase: "акционерного общества «Ромашка»",
			want:   "акционерное общество «Ромашка»",
		},
		{
			name:   "no nouns lemmatizes adjectives",
			phrase: "Новомосковского административного",
			want:   "новомосковский административный",
		},
		{
			name:   "unknown words pass through",
			phrase: "улица Ленина",
			want:   "улица Ленина",
		},
		{
			name:   "empty",
			phrase: "",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhrase(d, tt.phrase)
			if got != tt.want {
				t.Errorf("NormalizePhrase(%q) = %q, want %q", tt.phrase, got, tt.want)
			}
		})
	}
}

func TestNormalizePhraseDeterministic(t *testing.T) {
	d := newTestDict(t)
	phrase := "государственного казенного учреждения города Москвы"
	first := NormalizePhrase(d, phrase)
	for i := 0; i < 3; i++ {
		if got := NormalizePhrase(d, phrase); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}
