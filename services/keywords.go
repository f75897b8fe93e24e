package services

import (
	"sort"
	"strings"
	"unicode"
)

// englishStopwords is the NLTK English stopword corpus.
var englishStopwords = toSet(strings.Fields(`
i me my myself we our ours ourselves you you're you've you'll you'd your yours
yourself yourselves he him his himself she she's her hers herself it it's its
itself they them their theirs themselves what which who whom this that that'll
these those am is are was were be been being have has had having do does did
doing a an the and but if or because as until while of at by for with about
against between into through during before after above below to from up down
in out on off over under again further then once here there when where why how
all any both each few more most other some such no nor not only own same so
than too very s t can will just don don't should should've now d ll m o re ve
y ain aren aren't couldn couldn't didn didn't doesn doesn't hadn hadn't hasn
hasn't haven haven't isn isn't ma mightn mightn't mustn mustn't needn needn't
shan shan't shouldn shouldn't wasn wasn't weren weren't won won't wouldn
wouldn't
`))

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Tokenize lower-cases text and returns its alphabetic, non-stopword tokens
// longer than two letters, in text order.
func Tokenize(text string) []string {
	var out []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		word = splitClitic(word)
		if len([]rune(word)) <= 2 || !isAlpha(word) {
			continue
		}
		if _, stop := englishStopwords[word]; stop {
			continue
		}
		out = append(out, word)
	}
	return out
}

// clitics are the Treebank contractions split off a word's end.
var clitics = []string{"n't", "'s", "'re", "'ve", "'ll", "'d", "'m"}

// splitClitic returns word without a trailing clitic, so "openai's" counts
// as "openai".
func splitClitic(word string) string {
	word = strings.ReplaceAll(word, "\u2019", "'")
	for _, c := range clitics {
		if len(word) > len(c) && strings.HasSuffix(word, c) {
			return strings.TrimSuffix(word, c)
		}
	}
	return word
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// MostCommon returns up to n distinct words ordered by descending count.
// Equal counts keep first-occurrence order.
func MostCommon(words []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// ExtractKeywords returns the top-n keywords of one description.
func ExtractKeywords(text string, n int) []string {
	return MostCommon(Tokenize(text), n)
}
