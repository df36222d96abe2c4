// Package analysis computes readability and sentiment metrics for article
// text.
//
// The Engine is a pure function of its inputs: it performs no I/O and keeps
// no state between calls, so one Engine may be shared by any number of
// goroutines as long as the lexicon.Set it is given is not modified.
// Tokenizer selection happens once, up front, through Init.
package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TobiSchelling/articlemetrics/internal/lexicon"
)

// epsilon keeps the polarity and subjectivity ratios defined when their
// denominators are zero.
const epsilon = 0.000001

// Record is the fixed set of metrics computed for one article. The zero
// value is the record reported for articles that could not be analyzed.
type Record struct {
	PositiveScore          int     `json:"positive_score"`
	NegativeScore          int     `json:"negative_score"`
	PolarityScore          float64 `json:"polarity_score"`
	SubjectivityScore      float64 `json:"subjectivity_score"`
	AvgSentenceLength      float64 `json:"avg_sentence_length"`
	PercentageComplexWords float64 `json:"percentage_of_complex_words"`
	FogIndex               float64 `json:"fog_index"`
	AvgWordsPerSentence    float64 `json:"avg_number_of_words_per_sentence"`
	ComplexWordCount       int     `json:"complex_word_count"`
	WordCount              int     `json:"word_count"`
	SyllablesPerWord       float64 `json:"syllable_per_word"`
	PersonalPronouns       int     `json:"personal_pronouns"`
	AvgWordLength          float64 `json:"avg_word_length"`
}

// Engine turns raw text into a Record.
type Engine struct {
	strategy Strategy
}

// NewEngine creates an Engine using the given tokenizer strategy. A zero
// Strategy falls back to Naive.
func NewEngine(strategy Strategy) *Engine {
	if strategy.Words == nil || strategy.Sentences == nil {
		strategy = Naive()
	}
	return &Engine{strategy: strategy}
}

// Strategy returns the tokenizer strategy in use.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Analyze computes all metrics for text. It never fails; empty text yields
// the zero Record.
func (e *Engine) Analyze(text string, lex *lexicon.Set) Record {
	words := e.Clean(text, lex)
	sentences := max(1, len(e.strategy.Sentences.Sentences(text)))
	n := len(words)
	denom := float64(max(1, n))

	var pos, neg, complexCount, syllables, letters int
	for _, w := range words {
		if lex.IsPositive(w) {
			pos++
		}
		if lex.IsNegative(w) {
			neg++
		}
		s := CountSyllables(w)
		syllables += s
		if s > 2 {
			complexCount++
		}
		letters += utf8.RuneCountInString(w)
	}

	avgSentence := float64(n) / float64(sentences)
	pctComplex := float64(complexCount) / denom

	return Record{
		PositiveScore:          pos,
		NegativeScore:          neg,
		PolarityScore:          float64(pos-neg) / (float64(pos+neg) + epsilon),
		SubjectivityScore:      float64(pos+neg) / (float64(n) + epsilon),
		AvgSentenceLength:      avgSentence,
		PercentageComplexWords: pctComplex,
		FogIndex:               FogIndex(avgSentence, pctComplex),
		AvgWordsPerSentence:    avgSentence,
		ComplexWordCount:       complexCount,
		WordCount:              n,
		SyllablesPerWord:       float64(syllables) / denom,
		PersonalPronouns:       CountPersonalPronouns(text),
		AvgWordLength:          float64(letters) / denom,
	}
}

// FogIndex is the Gunning fog index for a given average sentence length and
// fraction of complex words.
func FogIndex(avgSentenceLength, pctComplexWords float64) float64 {
	return 0.4 * (avgSentenceLength + pctComplexWords*100)
}

// Clean lower-cases text, strips ASCII punctuation, tokenizes it and drops
// stopwords and tokens that are not purely alphanumeric.
func (e *Engine) Clean(text string, lex *lexicon.Set) []string {
	text = stripPunctuation(strings.ToLower(text))
	tokens := e.strategy.Words.Words(text)
	words := tokens[:0]
	for _, t := range tokens {
		if !isAlnum(t) || lex.IsStopword(t) {
			continue
		}
		words = append(words, t)
	}
	return words
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if isASCIIPunct(r) {
			return -1
		}
		return r
	}, s)
}

// isASCIIPunct matches !"#$%&'()*+,-./:;<=>?@[\]^_`{|}~.
func isASCIIPunct(r rune) bool {
	return (r >= '!' && r <= '/') || (r >= ':' && r <= '@') ||
		(r >= '[' && r <= '`') || (r >= '{' && r <= '~')
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
