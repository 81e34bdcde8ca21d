package criteria

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/kailas-cloud/coursedex/internal/domain/document"
)

// Tokenize splits text into lower-cased runs of letters and digits, the way
// the engine's standard analyzer does for Latin text.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// AutoFuzziness returns the edit budget for a term under "AUTO" fuzziness:
// exact below 3 runes, one edit up to 5, two beyond.
func AutoFuzziness(term string) int {
	switch n := len([]rune(term)); {
	case n < 3:
		return 0
	case n < 6:
		return 1
	default:
		return 2
	}
}

// matchKeyword reports whether any keyword token fuzzily matches any token of
// the searched document fields. Mirrors a multi_match with OR semantics.
func matchKeyword(keyword string, d *document.Document) bool {
	terms := Tokenize(keyword)
	if len(terms) == 0 {
		return false
	}

	var fieldTokens []string
	for _, f := range searchedText(d) {
		fieldTokens = append(fieldTokens, Tokenize(f)...)
	}

	for _, term := range terms {
		budget := AutoFuzziness(term)
		for _, tok := range fieldTokens {
			if withinDistance(term, tok, budget) {
				return true
			}
		}
	}
	return false
}

func searchedText(d *document.Document) []string {
	out := []string{
		d.Name, d.Overview, d.Specialization, d.UniversityName, d.Discipline, d.Department,
	}
	return append(out, d.Keywords...)
}

// withinDistance reports whether the optimal string alignment distance
// between a and b is at most k. Adjacent transpositions count as one edit.
func withinDistance(a, b string, k int) bool {
	if a == b {
		return true
	}
	if k == 0 {
		return false
	}
	if d := utf8.RuneCountInString(a) - utf8.RuneCountInString(b); d > k || -d > k {
		return false
	}
	return edlib.OSADamerauLevenshteinDistance(a, b) <= k
}
