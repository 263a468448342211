package instrument

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSymbol_Valid(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"NVDA", "NVDA"},
		{" nvda ", "NVDA"},
		{"brk.b", "BRK.B"},
		{"005930", "005930"},
		{"BF-B", "BF-B"},
	}
	for _, tt := range tests {
		got, err := ParseSymbol(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseSymbol_InvalidFormat(t *testing.T) {
	tests := []string{
		"",
		"   ",
		".NVDA",
		"NV DA",
		"TOOLONGSYMBOLX",
		"AB$",
	}
	for _, raw := range tests {
		_, err := ParseSymbol(raw)
		assert.True(t, errors.Is(err, ErrInvalidSymbol), "expected ErrInvalidSymbol for %q, got %v", raw, err)
	}
}

func TestCatalog_SortedAndCopied(t *testing.T) {
	c := Catalog()
	require.NotEmpty(t, c)
	for i := 1; i < len(c); i++ {
		assert.Less(t, c[i-1].Symbol, c[i].Symbol)
	}

	c[0].Name = "mutated"
	again := Catalog()
	assert.NotEqual(t, "mutated", again[0].Name)
}

func TestCatalog_SymbolsParse(t *testing.T) {
	for _, in := range Catalog() {
		sym, err := ParseSymbol(in.Symbol)
		require.NoError(t, err)
		assert.Equal(t, in.Symbol, sym)
		assert.True(t, in.BasePrice.IsPositive(), in.Symbol)
		assert.NotEmpty(t, in.Theme, in.Symbol)
	}
}

func TestLookupAndThemes(t *testing.T) {
	in, ok := Lookup("NVDA")
	require.True(t, ok)
	assert.Equal(t, ThemeSemiconductor, in.Theme)

	_, ok = Lookup("NOPE")
	assert.False(t, ok)

	themes := Themes()
	assert.Equal(t, ThemeSemiconductor, themes["AMD"])
	assert.Equal(t, ThemeEV, themes["TSLA"])
	assert.Len(t, themes, len(Catalog()))
}
