package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Challenge is a server-issued writing task gating a mining attempt.
type Challenge struct {
	ID     string
	Prompt string
}

func (c Challenge) Valid() bool {
	return c.ID != "" && strings.TrimSpace(c.Prompt) != ""
}

// PromptKind classifies a challenge prompt so the solver can pick the
// matching instruction pair.
type PromptKind int

const (
	PromptGeneric PromptKind = iota
	PromptParaphrase
	PromptWordCount
)

var (
	paraphraseRe   = regexp.MustCompile(`(?i)say this in different words`)
	exactWordsRe   = regexp.MustCompile(`(?i)exactly\s+(\d+)\s+words`)
	betweenWordsRe = regexp.MustCompile(`(?i)between\s+(\d+)\s+and\s+(\d+)\s+words`)
)

func ClassifyPrompt(prompt string) PromptKind {
	switch {
	case paraphraseRe.MatchString(prompt):
		return PromptParaphrase
	case exactWordsRe.MatchString(prompt) || betweenWordsRe.MatchString(prompt):
		return PromptWordCount
	default:
		return PromptGeneric
	}
}

// WordLimit extracts the hard upper word bound a prompt demands: the exact
// count for "exactly N words", the upper bound for "between N and M words".
func WordLimit(prompt string) (int, bool) {
	if m := exactWordsRe.FindStringSubmatch(prompt); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}
	if m := betweenWordsRe.FindStringSubmatch(prompt); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return n, true
		}
	}

	return 0, false
}

// RepairAnswer truncates answer to the word bound the prompt demands.
// Under-length answers are left alone; lower bounds, required words, and
// format constraints are the generator's responsibility.
func RepairAnswer(prompt, answer string) string {
	limit, ok := WordLimit(prompt)
	if !ok {
		return answer
	}

	words := strings.Fields(answer)
	if len(words) <= limit {
		return answer
	}

	return strings.Join(words[:limit], " ")
}

// SanitizeAnswer strips the surrounding quotes and whitespace generated
// answers often arrive with.
func SanitizeAnswer(answer string) string {
	trimmed := strings.TrimSpace(answer)
	trimmed = strings.Trim(trimmed, `"'`)
	return strings.TrimSpace(trimmed)
}
