package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStruct(t *testing.T) {
	ref := "  proofs/a.jpg "
	s := struct {
		Name  string
		Ref   *string
		Count int
	}{
		Name:  "  <b>Ali</b> Hassan  ",
		Ref:   &ref,
		Count: 3,
	}

	SanitizeStruct(&s)

	assert.Equal(t, "&lt;b&gt;Ali&lt;/b&gt; Hassan", s.Name)
	assert.Equal(t, "proofs/a.jpg", *s.Ref)
	assert.Equal(t, 3, s.Count)
}

func TestSanitizeStruct_KeepsArabic(t *testing.T) {
	s := struct{ Name string }{Name: " علي حسن "}

	SanitizeStruct(&s)

	assert.Equal(t, "علي حسن", s.Name)
}

func TestSanitizeStruct_NonStructIgnored(t *testing.T) {
	v := "plain"
	SanitizeStruct(&v)
	SanitizeStruct(nil)
	assert.Equal(t, "plain", v)
}

func TestValidateSafeRef(t *testing.T) {
	cases := []struct {
		ref  string
		want bool
	}{
		{"proofs/2026/a.jpg", true},
		{"id_01-x", true},
		{"../etc/passwd", true}, // dots and slashes are allowed; traversal is the store's problem
		{"a b", false},
		{"a;b", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, safeRefRe.MatchString(tc.ref), tc.ref)
	}
}
