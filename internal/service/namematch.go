package service

import "strings"

// Arabic presentation characters are folded before comparison so that the
// same name keyed in with or without diacritics, tatweel, or hamza-carrier
// variants still matches.
var arabicFolds = map[rune]rune{
	'آ': 'ا', // alef madda -> alef
	'أ': 'ا', // alef hamza above -> alef
	'إ': 'ا', // alef hamza below -> alef
	'ٱ': 'ا', // alef wasla -> alef
	'ى': 'ي', // alef maqsura -> yaa
	'ة': 'ه', // taa marbuta -> haa
	'ؤ': 'و', // waw hamza -> waw
	'ئ': 'ي', // yaa hamza -> yaa
}

// normalizeName lowercases, folds Arabic letter variants, drops diacritics
// and tatweel, and collapses whitespace.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == 'ـ': // tatweel
			continue
		case r >= 'ً' && r <= 'ٟ': // harakat
			continue
		case r == 'ٰ': // superscript alef
			continue
		}
		if folded, ok := arabicFolds[r]; ok {
			r = folded
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// firstName returns the first whitespace-delimited token of a normalized name.
func firstName(normalized string) string {
	if i := strings.IndexByte(normalized, ' '); i >= 0 {
		return normalized[:i]
	}
	return normalized
}

// NamesMatch compares the name presented at the counter against the receiver
// name recorded on the transfer. Full normalized equality always matches.
// Otherwise the first names are compared fuzzily: at least 70% of the longer
// first name's characters must appear in the shorter, or they must share a
// three-character prefix. Handwritten intake makes exact spelling unreliable.
func NamesMatch(presented, recorded string) bool {
	p := normalizeName(presented)
	r := normalizeName(recorded)
	if p == "" || r == "" {
		return false
	}
	if p == r {
		return true
	}
	return firstNamesMatch(firstName(p), firstName(r))
}

func firstNamesMatch(a, b string) bool {
	if a == b {
		return true
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) >= 3 && len(rb) >= 3 && string(ra[:3]) == string(rb[:3]) {
		return true
	}

	longer, shorter := ra, rb
	if len(rb) > len(ra) {
		longer, shorter = rb, ra
	}
	if len(longer) == 0 {
		return false
	}

	pool := map[rune]int{}
	for _, r := range shorter {
		pool[r]++
	}
	overlap := 0
	for _, r := range longer {
		if pool[r] > 0 {
			pool[r]--
			overlap++
		}
	}
	return overlap*10 >= len(longer)*7
}
