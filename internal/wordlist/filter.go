package wordlist

import (
	"strings"
	"unicode/utf8"
)

// Word length bounds applied to fetched vocabularies, in runes.
const (
	MinWordLen = 3
	MaxWordLen = 8
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for word lists.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	case "ru":
		return filterCyrillic
	default:
		return func(word string) bool { return word != "" }
	}
}

// FilterVocabulary lower-cases words and keeps the ones that match the
// language's alphabet and the length bounds. Order and duplicates are kept.
func FilterVocabulary(words []string, lang string) []string {
	keep := FilterForLang(lang)
	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		n := utf8.RuneCountInString(word)
		if n < MinWordLen || n > MaxWordLen {
			continue
		}
		if !keep(word) {
			continue
		}
		out = append(out, word)
	}
	return out
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}

func filterCyrillic(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if r == 'ё' || r == 'Ё' {
			continue
		}
		if (r < 'а' || r > 'я') && (r < 'А' || r > 'Я') {
			return false
		}
	}
	return true
}
