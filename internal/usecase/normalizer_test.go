package usecase

import (
	"testing"
)

func TestSKUKey(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "uppercases and trims",
			raw:  "  abc-123  ",
			want: "ABC-123",
		},
		{
			name: "strips diacritics",
			raw:  "REF-Açúcar",
			want: "REF-ACUCAR",
		},
		{
			name: "collapses internal whitespace runs",
			raw:  "AB   12\t34",
			want: "AB 12 34",
		},
		{
			name: "collapses non-breaking space runs",
			raw:  "kit  promo 10",
			want: "KIT PROMO 10",
		},
		{
			name: "preserves punctuation",
			raw:  "ab.12/34-x",
			want: "AB.12/34-X",
		},
		{
			name: "blank input yields empty key",
			raw:  "   ",
			want: "",
		},
		{
			name: "empty input yields empty key",
			raw:  "",
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SKUKey(tc.raw); got != tc.want {
				t.Errorf("SKUKey(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestSKUKeyEquivalence(t *testing.T) {
	// Variants that must all map to the same canonical key.
	variants := []string{"açúcar cristal", "ACUCAR   CRISTAL", "  Açúcar Cristal ", "Açúcar Cristal"}
	want := SKUKey(variants[0])
	if want == "" {
		t.Fatal("expected non-empty key")
	}
	for _, v := range variants {
		if got := SKUKey(v); got != want {
			t.Errorf("SKUKey(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestSKUKeyIdempotent(t *testing.T) {
	inputs := []string{"REF-001", "  café  com   leite ", "a.b/c-d", ""}
	for _, in := range inputs {
		once := SKUKey(in)
		if twice := SKUKey(once); twice != once {
			t.Errorf("SKUKey not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestNameKey(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "sorts tokens alphabetically",
			raw:  "Cristal Açúcar Premium",
			want: "ACUCAR CRISTAL PREMIUM",
		},
		{
			name: "word order does not matter",
			raw:  "Premium Açúcar Cristal",
			want: "ACUCAR CRISTAL PREMIUM",
		},
		{
			name: "strips punctuation",
			raw:  "Café, Torrado & Moído!",
			want: "CAFE MOIDO TORRADO",
		},
		{
			name: "drops short filler tokens",
			raw:  "Leite de Coco em Po",
			want: "COCO LEITE",
		},
		{
			name: "only short tokens yields empty key",
			raw:  "de em do",
			want: "",
		},
		{
			name: "blank yields empty key",
			raw:  "  ",
			want: "",
		},
		{
			name: "punctuation only yields empty key",
			raw:  "--- !!!",
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NameKey(tc.raw); got != tc.want {
				t.Errorf("NameKey(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNameKeyIdempotent(t *testing.T) {
	inputs := []string{"Açúcar Cristal Premium", "café torrado", "Leite de Coco"}
	for _, in := range inputs {
		once := NameKey(in)
		if twice := NameKey(once); twice != once {
			t.Errorf("NameKey not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}
