// Package count_inferrer establishes how many physical items a lot contains.
// It recognises cardinal number words (French and English), set idioms
// ("paire de", "ensemble de N", "lot de N") and digit counts, while excluding
// edition/printing numbers ("édition de huit exemplaires") that do not count
// items.  Absence of any signal defaults to one — the designed fallback, not a
// failure.
package count_inferrer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/rules"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// Result carries the inferred count plus the flag and log contributions of
// this stage.
type Result struct {
	Count lot.ItemCount
	Flags []lot.Flag
	Log   []string
}

// Inferrer scans text for item-count signals.  Safe for concurrent use.
type Inferrer struct {
	words []wordMatcher

	chaqueRe   *regexp.Regexp
	setIdiomRe *regexp.Regexp
	pairRe     *regexp.Regexp
	editionRe  *regexp.Regexp
}

type wordMatcher struct {
	word  string
	value int

	// anywhereRe matches the word with hyphen-aware boundaries so that "sept"
	// never matches inside "dix-sept".
	anywhereRe *regexp.Regexp

	// startRe matches the word opening a sentence, the high-confidence count
	// position ("Trois vases de Murano ...").
	startRe *regexp.Regexp

	// editionRe detects the word in an edition/printing context, which must
	// not register as an item count.
	editionRe *regexp.Regexp
}

// NewInferrer compiles the matchers for the given rule-set.  The rule-set must
// already be normalized.
func NewInferrer(rs rules.RuleSet) *Inferrer {
	words := make([]wordMatcher, 0, len(rs.NumberWords))
	for _, nw := range rs.NumberWords {
		q := regexp.QuoteMeta(nw.Word)
		words = append(words, wordMatcher{
			word:       nw.Word,
			value:      nw.Value,
			anywhereRe: regexp.MustCompile(`(?:^|[^\p{L}-])` + q + `(?:[^\p{L}-]|$)`),
			startRe:    regexp.MustCompile(`(?:^|[.\n])\s*` + q + `(?:[^\p{L}-]|$)`),
			editionRe:  regexp.MustCompile(`(?:édition|edition|tirage)\s+de\s+` + q),
		})
	}
	return &Inferrer{
		words:      words,
		chaqueRe:   regexp.MustCompile(`\b(?:chaque|each)\b`),
		setIdiomRe: regexp.MustCompile(`\b(?:ensemble|lot|suite)\s+de\s+(\d+)|\bset\s+of\s+(\d+)`),
		pairRe:     regexp.MustCompile(`\bpaires?\s+de\b|\bpairs?\s+of\b`),
		editionRe:  regexp.MustCompile(`(?:édition|edition|tirage)\s+(?:de\s+|of\s+)?(?:\d+|\p{L}+(?:-\p{L}+)?)`),
	}
}

// Infer returns the item count for text.  It never fails; the default count is
// one.
func (i *Inferrer) Infer(text string) Result {
	var res Result
	textLower := strings.ToLower(text)
	excluded := i.exclusionSpans(textLower)

	// "chaque"/"each" implies per-unit measurement but not a reliable total:
	// flag for review, then take the best count signal available anywhere.
	if i.chaqueRe.MatchString(textLower) {
		res.Flags = append(res.Flags, lot.FlagChaqueDetected)
		res.Log = append(res.Log, `"chaque"/"each" detected: per-unit measurement, count needs manual verification`)

		for _, w := range i.words {
			if loc := i.findOutside(w.anywhereRe, textLower, excluded); loc != nil {
				res.Count = lot.ItemCount{Count: w.value, Provenance: provenanceFor(w.word), Ambiguous: true}
				res.Log = append(res.Log, countLog(w.value, w.word))
				return res
			}
		}
		res.Count = lot.ItemCount{Count: 1, Provenance: lot.CountDefault, Ambiguous: true}
		res.Log = append(res.Log, "Item count defaulted to 1 (no count signal)")
		return res
	}

	// Digit set idioms: "ensemble de 12", "lot de 3", "set of 4".
	if m := i.setIdiomRe.FindStringSubmatchIndex(textLower); m != nil && !inside(excluded, m[0]) {
		var digits string
		if m[2] >= 0 {
			digits = textLower[m[2]:m[3]]
		} else {
			digits = textLower[m[4]:m[5]]
		}
		if n, err := strconv.Atoi(digits); err == nil && n >= 1 {
			res.Count = lot.ItemCount{Count: n, Provenance: lot.CountExplicit}
			res.Log = append(res.Log, countLog(n, strings.TrimSpace(textLower[m[0]:m[1]])))
			return res
		}
	}

	// "paire de" / "pair of" is a fixed-arity idiom.
	if loc := i.findOutside(i.pairRe, textLower, excluded); loc != nil {
		res.Count = lot.ItemCount{Count: 2, Provenance: lot.CountIdiom}
		res.Log = append(res.Log, countLog(2, "paire de"))
		return res
	}

	// Cardinal word opening a sentence ("Trois vases de Murano..."), unless
	// it is an edition count.
	for _, w := range i.words {
		if w.startRe.MatchString(textLower) && !w.editionRe.MatchString(textLower) {
			res.Count = lot.ItemCount{Count: w.value, Provenance: provenanceFor(w.word)}
			res.Log = append(res.Log, countLog(w.value, w.word))
			return res
		}
	}

	res.Count = lot.ItemCount{Count: 1, Provenance: lot.CountDefault}
	return res
}

// exclusionSpans returns the text regions claimed by edition/printing
// numbering.
func (i *Inferrer) exclusionSpans(textLower string) [][2]int {
	var spans [][2]int
	for _, m := range i.editionRe.FindAllStringIndex(textLower, -1) {
		spans = append(spans, [2]int{m[0], m[1]})
	}
	return spans
}

// findOutside returns the first match of re not inside an excluded span.
func (i *Inferrer) findOutside(re *regexp.Regexp, textLower string, excluded [][2]int) []int {
	offset := 0
	for offset <= len(textLower) {
		loc := re.FindStringIndex(textLower[offset:])
		if loc == nil {
			return nil
		}
		abs := []int{loc[0] + offset, loc[1] + offset}
		if !inside(excluded, abs[0]) {
			return abs
		}
		offset = abs[0] + 1
	}
	return nil
}

func inside(spans [][2]int, pos int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

func provenanceFor(word string) lot.CountProvenance {
	if word == "paire" {
		return lot.CountIdiom
	}
	return lot.CountExplicit
}

func countLog(n int, signal string) string {
	return "Item count " + strconv.Itoa(n) + ` from "` + signal + `"`
}
