package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"latin lowercased", "Omar  Khalid", "omar khalid"},
		{"alef hamza folded", "أحمد", "احمد"},
		{"alef madda folded", "آمنة", "امنه"},
		{"taa marbuta folded", "فاطمة", "فاطمه"},
		{"alef maqsura folded", "مصطفى", "مصطفي"},
		{"tatweel stripped", "محـــمد", "محمد"},
		{"diacritics stripped", "مُحَمَّد", "محمد"},
		{"whitespace collapsed", "  علي   حسن  ", "علي حسن"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeName(tt.in))
		})
	}
}

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		name      string
		presented string
		recorded  string
		want      bool
	}{
		{"exact", "Omar Khalid", "Omar Khalid", true},
		{"case and spacing", "omar  khalid", "Omar Khalid", true},
		{"hamza variant", "أحمد علي", "احمد علي", true},
		{"diacritics on recorded", "محمد حسن", "مُحَمَّد حسن", true},
		{"first name only overlap", "Mohammed Kareem Saleh", "Mohamed Kareem", true},
		{"shared three char prefix", "Ibraheem Adel", "Ibrahim Adel", true},
		{"different person", "Omar Khalid", "Zainab Hussein", false},
		{"short dissimilar names", "Ali Hasan", "Zia Hasan", false},
		{"empty presented", "", "Omar Khalid", false},
		{"empty recorded", "Omar Khalid", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NamesMatch(tt.presented, tt.recorded))
		})
	}
}
