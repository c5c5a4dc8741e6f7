package extract

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/suryansh1j/vaidya/internal/domain/patient"
)

//go:embed data/symptom_terms.csv
var termData embed.FS

// negation cues preceding an entity mention ("denies fever", "no cough").
// Multi-word cues are matched on token boundaries.
var precedingCues = [][]string{
	{"no"},
	{"not"},
	{"without"},
	{"denies"},
	{"denied"},
	{"denying"},
	{"never", "had"},
	{"negative", "for"},
	{"free", "of"},
	{"absence", "of"},
	{"no", "evidence", "of"},
	{"no", "sign", "of"},
	{"no", "signs", "of"},
	{"no", "history", "of"},
	{"no", "complaints", "of"},
	{"doesn't", "have"},
	{"does", "not", "have"},
	{"didn't", "have"},
	{"did", "not", "have"},
	{"hasn't", "had"},
	{"has", "not", "had"},
	{"not", "experiencing"},
	{"ruled", "out"},
	{"rules", "out"},
}

// negation cues following an entity mention ("fever was ruled out").
var followingCues = [][]string{
	{"was", "ruled", "out"},
	{"is", "ruled", "out"},
	{"has", "resolved"},
	{"have", "resolved"},
	{"was", "denied"},
}

// A termination token ends a negation scope mid-sentence:
// "no fever but complains of cough" keeps cough affirmed.
var scopeTerminators = map[string]struct{}{
	"but":      {},
	"however":  {},
	"although": {},
	"though":   {},
	"except":   {},
	"yet":      {},
}

// negationWindow is the maximum token distance a cue's scope covers.
const negationWindow = 6

// SymptomExtractor matches a clinical term lexicon against a transcript and
// partitions matches into affirmed and negated sets using cue-scope
// negation detection. Output is deterministic for a fixed transcript.
type SymptomExtractor struct {
	// canonical maps every lexicon phrase (tokenized, space-joined,
	// lowercase) to its canonical label.
	canonical map[string]string
	// maxPhraseLen is the longest lexicon phrase in tokens.
	maxPhraseLen int
	maxCueLen    int
}

func NewSymptomExtractor() (*SymptomExtractor, error) {
	f, err := termData.Open("data/symptom_terms.csv")
	if err != nil {
		return nil, fmt.Errorf("opening symptom lexicon: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading lexicon header: %w", err)
	}
	if len(header) < 2 || header[0] != "term" || header[1] != "label" {
		return nil, fmt.Errorf("unexpected lexicon header: %v", header)
	}

	e := &SymptomExtractor{canonical: make(map[string]string)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading lexicon row: %w", err)
		}

		term := strings.ToLower(strings.TrimSpace(row[0]))
		label := strings.ToLower(strings.TrimSpace(row[1]))
		if term == "" || label == "" {
			continue
		}

		tokens := strings.Fields(term)
		e.canonical[strings.Join(tokens, " ")] = label
		if len(tokens) > e.maxPhraseLen {
			e.maxPhraseLen = len(tokens)
		}
	}

	for _, cue := range precedingCues {
		if len(cue) > e.maxCueLen {
			e.maxCueLen = len(cue)
		}
	}
	for _, cue := range followingCues {
		if len(cue) > e.maxCueLen {
			e.maxCueLen = len(cue)
		}
	}

	return e, nil
}

// Extract returns the affirmed/negated symptom partition for the
// transcript. Terms are canonicalized through the lexicon; duplicates are
// suppressed by exact string identity preserving first-seen order, and a
// term negated anywhere is excluded from affirmed (negation wins).
func (e *SymptomExtractor) Extract(transcript string) patient.Symptoms {
	var affirmedOrder, negatedOrder []string
	affirmedSeen := make(map[string]struct{})
	negatedSeen := make(map[string]struct{})

	for _, sentence := range splitSentences(transcript) {
		tokens := tokenize(sentence)
		if len(tokens) == 0 {
			continue
		}

		matches := e.matchEntities(tokens)
		for _, m := range matches {
			if e.isNegated(tokens, m) {
				if _, ok := negatedSeen[m.label]; !ok {
					negatedSeen[m.label] = struct{}{}
					negatedOrder = append(negatedOrder, m.label)
				}
			} else {
				if _, ok := affirmedSeen[m.label]; !ok {
					affirmedSeen[m.label] = struct{}{}
					affirmedOrder = append(affirmedOrder, m.label)
				}
			}
		}
	}

	// Negation wins: a term denied anywhere is reported only as negated.
	affirmed := make([]string, 0, len(affirmedOrder))
	for _, term := range affirmedOrder {
		if _, ok := negatedSeen[term]; !ok {
			affirmed = append(affirmed, term)
		}
	}

	return patient.Symptoms{Affirmed: affirmed, Negated: negatedOrder}
}

type entityMatch struct {
	start, end int // token span [start, end)
	label      string
}

// matchEntities finds non-overlapping lexicon matches, longest match first.
func (e *SymptomExtractor) matchEntities(tokens []string) []entityMatch {
	var matches []entityMatch
	i := 0
	for i < len(tokens) {
		matched := false
		maxLen := e.maxPhraseLen
		if rest := len(tokens) - i; rest < maxLen {
			maxLen = rest
		}
		for l := maxLen; l >= 1; l-- {
			phrase := strings.Join(tokens[i:i+l], " ")
			if label, ok := e.canonical[phrase]; ok {
				matches = append(matches, entityMatch{start: i, end: i + l, label: label})
				i += l
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return matches
}

func (e *SymptomExtractor) isNegated(tokens []string, m entityMatch) bool {
	// Preceding cue: scope runs forward from the cue end up to the window,
	// broken by a terminator token.
	for _, cue := range precedingCues {
		for start := m.start - 1; start >= 0 && m.start-start <= negationWindow+len(cue); start-- {
			if !cueAt(tokens, cue, start) {
				continue
			}
			cueEnd := start + len(cue)
			if cueEnd > m.start {
				continue
			}
			if m.start-cueEnd > negationWindow {
				continue
			}
			if !terminatorBetween(tokens, cueEnd, m.start) {
				return true
			}
		}
	}

	// Following cue: "fever was ruled out".
	for _, cue := range followingCues {
		for start := m.end; start < len(tokens) && start-m.end <= negationWindow; start++ {
			if !cueAt(tokens, cue, start) {
				continue
			}
			if !terminatorBetween(tokens, m.end, start) {
				return true
			}
		}
	}

	return false
}

func cueAt(tokens []string, cue []string, pos int) bool {
	if pos < 0 || pos+len(cue) > len(tokens) {
		return false
	}
	for i, c := range cue {
		if tokens[pos+i] != c {
			return false
		}
	}
	return true
}

func terminatorBetween(tokens []string, from, to int) bool {
	for i := from; i < to && i < len(tokens); i++ {
		if _, ok := scopeTerminators[tokens[i]]; ok {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '.', '!', '?', ';', '\n':
			return true
		}
		return false
	})
}

// tokenize lowercases and strips punctuation, keeping intra-word
// apostrophes so cues like "doesn't" survive.
func tokenize(sentence string) []string {
	fields := strings.Fields(strings.ToLower(sentence))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		cleaned := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}
