package usecase

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer turns a raw spoken or typed question into a canonical product query
type Normalizer interface {
	Normalize(raw string) string
}

// DefaultNoisePhrases are conversational fragments removed from price questions.
// They are written without accents because matching happens after accent stripping.
var DefaultNoisePhrases = []string{
	// Price-question templates
	"cuanto cuesta el", "cuanto cuesta la", "cuanto cuestan los", "cuanto cuestan las",
	"cuanto cuesta", "cuanto cuestan",
	"cuanto vale el", "cuanto vale la", "cuanto vale",
	"cuanto sale el", "cuanto sale la", "cuanto sale",
	"en cuanto esta el", "en cuanto esta la", "en cuanto esta",
	"que precio tiene el", "que precio tiene la", "que precio tiene",
	"cual es el precio del", "cual es el precio de la", "cual es el precio de", "cual es el precio",
	"dame el precio del", "dame el precio de la", "dame el precio de", "dame el precio",
	"me das el precio del", "me das el precio de", "me das el precio",
	"precio del", "precio de la", "precio de", "precio",

	// Courtesy and fillers
	"me puedes decir", "me podrias decir", "por favor", "buenos dias", "buenas tardes", "buenas noches",
	"hola", "oye", "disculpa",

	// Verbs
	"busco", "necesito", "quiero", "tienes", "tienen", "tiene", "hay", "venden", "vendes",

	// Articles
	"el", "la", "los", "las", "un", "una",
}

// Anything that is not a letter, digit, space or a symbol that appears inside product names
var queryPunctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s.%/+\-]`)

// newAccentStripper decomposes, drops combining marks and recomposes.
// Chained transformers keep state, so each call gets its own.
func newAccentStripper() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizerConfig holds configuration for the query normalizer
type NormalizerConfig struct {
	// NoisePhrases overrides DefaultNoisePhrases when non-empty
	NoisePhrases []string
	Logger       *zerolog.Logger
}

// QueryNormalizer strips accents, conversational noise and punctuation from queries
type QueryNormalizer struct {
	// phrases indexed by their first word, longest first
	phrases map[string][][]string
	logger  zerolog.Logger
}

// NewQueryNormalizer creates a normalizer. Phrases are matched as whole words and tried
// longest first so that "cuanto cuesta el" is removed before the bare "el" can split it.
func NewQueryNormalizer(config NormalizerConfig) *QueryNormalizer {
	phrases := config.NoisePhrases
	if len(phrases) == 0 {
		phrases = DefaultNoisePhrases
	}

	cleaned := make([][]string, 0, len(phrases))
	seen := make(map[string]bool)
	for _, p := range phrases {
		words := strings.Fields(stripQueryPunctuation(foldText(p)))
		key := strings.Join(words, " ")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, words)
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return len(cleaned[i]) > len(cleaned[j])
	})

	index := make(map[string][][]string)
	for _, words := range cleaned {
		index[words[0]] = append(index[words[0]], words)
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &QueryNormalizer{
		phrases: index,
		logger:  logger,
	}
}

// Normalize returns the canonical form of a raw query.
// It never returns an empty string for a non-empty input: when nothing survives the
// cleanup the lowercased input is returned as is.
func (n *QueryNormalizer) Normalize(raw string) string {
	lowered := strings.ToLower(raw)
	cleaned := foldText(lowered)

	// Dropping a phrase can make its neighbours form a new one ("cuanto el cuesta"),
	// so removal repeats until nothing changes. Every pass that changes anything
	// removes at least one word.
	words := strings.Fields(stripQueryPunctuation(cleaned))
	for {
		next := n.removeNoise(words)
		if len(next) == len(words) {
			break
		}
		words = next
	}
	cleaned = strings.Join(words, " ")

	if cleaned == "" {
		cleaned = lowered
	}

	n.logger.Debug().Str("input", raw).Str("output", cleaned).Msg("normalized query")
	return cleaned
}

// removeNoise drops every phrase occurrence in one left-to-right scan, trying the
// longest phrase first at each position
func (n *QueryNormalizer) removeNoise(words []string) []string {
	kept := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		if size := n.matchAt(words, i); size > 0 {
			i += size
			continue
		}
		kept = append(kept, words[i])
		i++
	}
	return kept
}

// matchAt returns the length of the longest phrase starting at words[i], or 0
func (n *QueryNormalizer) matchAt(words []string, i int) int {
	for _, phrase := range n.phrases[words[i]] {
		if len(phrase) > len(words)-i {
			continue
		}
		match := true
		for j, w := range phrase {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return len(phrase)
		}
	}
	return 0
}

// stripQueryPunctuation removes question marks and other punctuation and collapses whitespace.
// Dots, slashes and signs survive only inside tokens ("1.5mg", "5/325").
func stripQueryPunctuation(s string) string {
	s = queryPunctuationRegex.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		w = strings.Trim(w, ".-/+")
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// foldText lowercases and strips accents
func foldText(s string) string {
	lowered := strings.ToLower(s)
	folded, _, err := transform.String(newAccentStripper(), lowered)
	if err != nil {
		return lowered
	}
	return folded
}
