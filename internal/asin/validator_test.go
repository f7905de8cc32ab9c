package asin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"already normalized", "B08N5WRWNW", "B08N5WRWNW", true},
		{"lowercase", "b08n5wrwnw", "B08N5WRWNW", true},
		{"surrounding whitespace", "  B07K2G8Z4Q\t", "B07K2G8Z4Q", true},
		{"all digits after B", "B123456789", "B123456789", true},
		{"wrong prefix", "A08N5WRWNW", "", false},
		{"too short", "B08N5WRWN", "", false},
		{"too long", "B08N5WRWNWX", "", false},
		{"punctuation", "B08N5-RWNW", "", false},
		{"inner space", "B08N5 RWNW", "", false},
		{"empty", "", "", false},
		{"isbn", "0306406152", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_RejectsEveryLengthButTen(t *testing.T) {
	for n := 0; n <= 20; n++ {
		if n == 10 {
			continue
		}
		s := "B" + strings.Repeat("0", max(n-1, 0))
		if n == 0 {
			s = ""
		}
		_, ok := Normalize(s)
		assert.False(t, ok, "length %d", n)
	}
}

func TestNormalize_UppercasesMixedCase(t *testing.T) {
	for _, s := range []string{"bAbCdEfGhI", "B0a1B2c3D4", "bzzzzzzzzz"} {
		got, ok := Normalize(s)
		assert.True(t, ok, s)
		assert.Equal(t, strings.ToUpper(s), got)
	}
}

func TestParseBulkText_DuplicatesAcrossCase(t *testing.T) {
	got := ParseBulkText("B08N5WRWNW, b08n5wrwnw;B08N5WRWNW")

	assert.Equal(t, []string{"B08N5WRWNW"}, got.Valid)
	assert.Equal(t, []string{"B08N5WRWNW", "B08N5WRWNW"}, got.Duplicates)
	assert.Empty(t, got.Invalid)
}

func TestParseBulkText_InvalidTokens(t *testing.T) {
	got := ParseBulkText("notanasin B123456789")

	assert.Equal(t, []string{"notanasin"}, got.Invalid)
	assert.Equal(t, []string{"B123456789"}, got.Valid)
	assert.Empty(t, got.Duplicates)
}

func TestParseBulkText_CollapsesDelimiterRuns(t *testing.T) {
	got := ParseBulkText("\n\n,,; B08N5WRWNW \r\n\t;;B07K2G8Z4Q,,\n")

	assert.Equal(t, []string{"B08N5WRWNW", "B07K2G8Z4Q"}, got.Valid)
	assert.Empty(t, got.Invalid)
	assert.Empty(t, got.Duplicates)
}

func TestParseBulkText_Empty(t *testing.T) {
	got := ParseBulkText("")

	assert.Empty(t, got.Valid)
	assert.Empty(t, got.Invalid)
	assert.Empty(t, got.Duplicates)
}

func TestParseBulkText_IdempotentOnValidOutput(t *testing.T) {
	first := ParseBulkText("b08n5wrwnw x B07K2G8Z4Q; B08N5WRWNW,B0C1234567 bad")

	second := ParseBulkText(strings.Join(first.Valid, "\n"))

	assert.Equal(t, first.Valid, second.Valid)
	assert.Empty(t, second.Duplicates)
	assert.Empty(t, second.Invalid)
}

func TestParseBulkText_LargeInput(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 3000; i++ {
		b.WriteString("B0000000")
		b.WriteByte(byte('A' + i%26))
		b.WriteByte(byte('0' + i%10))
		b.WriteByte('\n')
	}

	got := ParseBulkText(b.String())

	assert.Len(t, got.Valid, 130)
	assert.Len(t, got.Duplicates, 3000-130)
}
