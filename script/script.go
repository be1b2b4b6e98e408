package script

import (
	"strings"
	"unicode"
)

type (
	// Word is one entry of the fixed, ordered word sequence. Built once
	// at startup, never mutated afterwards.
	Word struct {
		Index      int
		Surface    string
		Normalized string
	}

	// Sentence is a contiguous range of word indices, both inclusive.
	Sentence struct {
		Start int
		End   int
	}

	Script struct {
		Words     []Word
		Sentences []Sentence
	}
)

// Parse splits the script text into the word sequence and groups words
// into sentences on terminal punctuation.
func Parse(text string) Script {
	var s Script
	sentenceStart := 0

	for _, raw := range strings.Fields(text) {
		idx := len(s.Words)
		s.Words = append(s.Words, Word{
			Index:      idx,
			Surface:    raw,
			Normalized: Normalize(raw),
		})
		if endsSentence(raw) {
			s.Sentences = append(s.Sentences, Sentence{Start: sentenceStart, End: idx})
			sentenceStart = idx + 1
		}
	}
	if sentenceStart < len(s.Words) {
		s.Sentences = append(s.Sentences, Sentence{Start: sentenceStart, End: len(s.Words) - 1})
	}
	return s
}

// Normalize lowercases a surface form and strips punctuation, yielding
// the form segments are keyed by.
func Normalize(surface string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(surface) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func endsSentence(raw string) bool {
	trimmed := strings.TrimRightFunc(raw, func(r rune) bool {
		return r == '"' || r == '\'' || r == ')' || r == ']'
	})
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?")
}

// WordCount reports the sequence length.
func (s Script) WordCount() int {
	return len(s.Words)
}

// SentenceRange resolves a sentence index to its inclusive global word
// range. ok is false when the index is out of bounds.
func (s Script) SentenceRange(sentence int) (Sentence, bool) {
	if sentence < 0 || sentence >= len(s.Sentences) {
		return Sentence{}, false
	}
	return s.Sentences[sentence], true
}

// SentenceOf finds the sentence containing the global word index.
func (s Script) SentenceOf(idx int) (int, bool) {
	for i, r := range s.Sentences {
		if idx >= r.Start && idx <= r.End {
			return i, true
		}
	}
	return 0, false
}

// GlobalIndex maps a (sentence, word-in-sentence) pair to the word's
// position in the whole sequence.
func (s Script) GlobalIndex(sentence, word int) (int, bool) {
	r, ok := s.SentenceRange(sentence)
	if !ok {
		return 0, false
	}
	idx := r.Start + word
	if word < 0 || idx > r.End {
		return 0, false
	}
	return idx, true
}
