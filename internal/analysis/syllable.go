package analysis

import "strings"

// CountSyllables estimates syllables by counting vowel groups after dropping
// one trailing "es" or "ed". Every word has at least one syllable.
func CountSyllables(word string) int {
	if strings.HasSuffix(word, "es") || strings.HasSuffix(word, "ed") {
		word = word[:len(word)-2]
	}
	count := 0
	lastWasVowel := false
	for _, r := range word {
		vowel := isVowel(r)
		if vowel && !lastWasVowel {
			count++
		}
		lastWasVowel = vowel
	}
	return max(1, count)
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
