package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultFor(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"de_DE.UTF-8", "de"},
		{"de-AT", "de"},
		{"fr_CA", "fr"},
		{"pt_BR", "pt_BR"},
		{"pt-BR", "pt_BR"},
		{"pt_PT", "pt"},
		{"zh_CN.UTF-8", "zh_CN"},
		{"zh_TW", "zh_TW"},
		{"ja_JP", "ja"},
		{"en_US", "en"},
		{"sr_RS@latin", "sr"},
		{"xx_YY", Fallback},
		{"gsw_CH", Fallback},
		{"C", Fallback},
		{"", Fallback},
		{"%%%", Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultFor(tt.locale))
		})
	}
}

func TestTable(t *testing.T) {
	assert.GreaterOrEqual(t, Index(Fallback), 0)
	assert.Equal(t, -1, Index("tlh"))
	assert.Len(t, Names(), len(Supported))

	seen := make(map[string]bool)
	for _, l := range Supported {
		assert.False(t, seen[l.Code], l.Code)
		seen[l.Code] = true
	}
}
