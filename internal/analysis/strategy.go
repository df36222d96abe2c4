package analysis

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Mode selects how Init picks a tokenizer strategy.
type Mode string

const (
	// ModeAuto uses the language-aware tokenizers when they can be built
	// and the naive ones otherwise.
	ModeAuto Mode = "auto"
	// ModeLanguage asks for the language-aware tokenizers. It still falls
	// back to naive splitting if they cannot be built.
	ModeLanguage Mode = "language"
	// ModeNaive always uses whitespace/period splitting.
	ModeNaive Mode = "naive"
)

// ParseMode converts a config string into a Mode. Empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeLanguage:
		return ModeLanguage, nil
	case ModeNaive:
		return ModeNaive, nil
	}
	return "", fmt.Errorf("unknown tokenizer mode %q (want auto, language or naive)", s)
}

// WordTokenizer splits cleaned text into word tokens.
type WordTokenizer interface {
	Words(text string) []string
}

// SentenceSplitter splits raw text into sentences.
type SentenceSplitter interface {
	Sentences(text string) []string
}

// Strategy is the pair of tokenizers the engine runs with.
type Strategy struct {
	Name      string
	Words     WordTokenizer
	Sentences SentenceSplitter
}

// Naive returns the fallback strategy: whitespace splitting for words and
// splitting on '.' for sentences.
func Naive() Strategy {
	return Strategy{Name: string(ModeNaive), Words: whitespaceWords{}, Sentences: periodSentences{}}
}

var (
	probeOnce sync.Once
	language  Strategy
	probeErr  error
)

// Init returns the strategy for mode. The language-aware tokenizers are
// built and probed at most once per process; later calls reuse the result.
func Init(mode Mode) Strategy {
	if mode == ModeNaive {
		return Naive()
	}
	probeOnce.Do(func() {
		language, probeErr = buildLanguage()
		if probeErr != nil {
			log.Printf("Language-aware tokenizers unavailable, using naive splitting: %v", probeErr)
		}
	})
	if probeErr != nil {
		return Naive()
	}
	return language
}

func buildLanguage() (Strategy, error) {
	st, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return Strategy{}, fmt.Errorf("building sentence tokenizer: %w", err)
	}
	if _, err := proseTokens("probe text"); err != nil {
		return Strategy{}, fmt.Errorf("building word tokenizer: %w", err)
	}
	return Strategy{
		Name:      string(ModeLanguage),
		Words:     proseWords{},
		Sentences: punktSentences{tokenizer: st},
	}, nil
}

type whitespaceWords struct{}

func (whitespaceWords) Words(text string) []string {
	return strings.Fields(text)
}

type periodSentences struct{}

// Sentences keeps empty segments, so "a. b." yields three sentences.
func (periodSentences) Sentences(text string) []string {
	return strings.Split(text, ".")
}

type proseWords struct{}

func (proseWords) Words(text string) []string {
	words, err := proseTokens(text)
	if err != nil {
		return strings.Fields(text)
	}
	return words
}

func proseTokens(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}
	toks := doc.Tokens()
	words := make([]string, 0, len(toks))
	for _, t := range toks {
		words = append(words, t.Text)
	}
	return words, nil
}

type punktSentences struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func (p punktSentences) Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	sents := p.tokenizer.Tokenize(text)
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
