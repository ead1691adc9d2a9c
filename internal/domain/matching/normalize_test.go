package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"lower cases", "ACME LTDA", "acme ltda"},
		{"strips punctuation", "ACME LTDA.", "acme ltda"},
		{"strips diacritics", "Papelaria São João", "papelaria sao joao"},
		{"cedilla", "Açougue Conceição", "acougue conceicao"},
		{"collapses whitespace", "  Casa   do\tPapel \n", "casa do papel"},
		{"keeps digits", "Loja 24 Horas", "loja 24 horas"},
		{"drops symbols", "M&M's Comércio - ME", "mms comercio me"},
		{"only symbols", "***", ""},
		{"non latin letters removed", "Δelta Ω", "elta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"ACME LTDA.",
		"  Distribuidora   Ñandú  S/A ",
		"Ótica & Relojoaria  Três Irmãos",
		"\t\n",
		"ﬁ ligature and İstanbul",
		"123 - 456 / 789",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeTaxID(t *testing.T) {
	assert.Equal(t, "12345678000199", NormalizeTaxID("12.345.678/0001-99"))
	assert.Equal(t, "12345678000199", NormalizeTaxID("12345678000199"))
	assert.Equal(t, "", NormalizeTaxID(""))
	assert.Equal(t, "", NormalizeTaxID("n/a"))
}
