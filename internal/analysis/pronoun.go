package analysis

import "unicode"

var pronouns = []string{"i", "we", "my", "ours", "us"}

// CountPersonalPronouns counts case-insensitive occurrences of I, we, my,
// ours and us as whole words, skipping any occurrence whose next character,
// or first character after a run of whitespace, is a Latin letter of either
// case.
//
// This is the scanner form of the pattern \b(I|we|my|ours|us)(?!\s*[A-Z])\b
// matched with case folding; RE2 has no lookahead. Matches do not overlap and
// scanning resumes after each match.
func CountPersonalPronouns(text string) int {
	rs := []rune(text)
	count := 0
	for i := 0; i < len(rs); {
		if end, ok := matchPronoun(rs, i); ok {
			count++
			i = end
			continue
		}
		i++
	}
	return count
}

func matchPronoun(rs []rune, i int) (int, bool) {
	if i > 0 && isWordRune(rs[i-1]) {
		return 0, false
	}
	for _, p := range pronouns {
		end := i + len(p)
		if end > len(rs) || !foldEqual(rs[i:end], p) {
			continue
		}
		if followedByLetter(rs, end) {
			continue
		}
		if end < len(rs) && isWordRune(rs[end]) {
			continue
		}
		return end, true
	}
	return 0, false
}

func foldEqual(rs []rune, ascii string) bool {
	for k, r := range rs {
		want := rune(ascii[k])
		if unicode.ToLower(r) != want && unicode.ToUpper(r) != unicode.ToUpper(want) {
			return false
		}
	}
	return true
}

// followedByLetter is the (?!\s*[A-Z]) check under case folding.
func followedByLetter(rs []rune, j int) bool {
	if j < len(rs) && isFoldedLatin(rs[j]) {
		return true
	}
	for j < len(rs) && isRegexSpace(rs[j]) {
		j++
	}
	return j < len(rs) && isFoldedLatin(rs[j])
}

// isFoldedLatin reports whether r matches [A-Z] when case is ignored.
func isFoldedLatin(r rune) bool {
	l, u := unicode.ToLower(r), unicode.ToUpper(r)
	return (l >= 'a' && l <= 'z') || (u >= 'A' && u <= 'Z')
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isRegexSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
