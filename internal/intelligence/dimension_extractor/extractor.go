// Package dimension_extractor scans free-text auction-lot descriptions for
// dimension clusters.  Matching proceeds through a fixed priority hierarchy —
// labeled triplets, unlabeled triplets, height-and-diameter pairs, unlabeled
// pairs, bare diameters, scattered single labels — and once a higher-priority
// pattern claims a text region no lower-priority pattern may match inside it.
//
// Extraction is a pure function: it has no side effects and never fails.  An
// unmatched description yields an empty result, which is itself meaningful
// downstream (NO_DIMENSIONS).
package dimension_extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// numPat matches a decimal value with a comma or dot separator.  A space after
// a comma is deliberately NOT accepted: "1, 5" is indistinguishable from
// thousands grouping and is left for manual correction.
const numPat = `(\d+(?:[.,]\d+)?)`

const sepPat = `\s*[×x]\s*`

// Extractor holds the compiled pattern hierarchy.  It is safe for concurrent
// use; all state is immutable after construction.
type Extractor struct {
	// labeledRe covers both the labeled triplet "H 50 × L 40 × P 30" and the
	// cylindrical "H 50 × Ø 30" notation.  Groups: 1=H, 2=L, 3=P, 4=Ø.
	labeledRe *regexp.Regexp

	// tripletRe is the positional "N × N × N cm" notation, mapped H×L×P by
	// convention.
	tripletRe *regexp.Regexp

	// pairRe is the ambiguous "N × N cm" notation; 2D-vs-partial-3D
	// interpretation is deferred to the classifier and resolver.
	pairRe *regexp.Regexp

	// diameterRe is the bare "Ø N" notation.
	diameterRe *regexp.Regexp

	// scatteredRes are the isolated single-label patterns, lowest confidence.
	scatteredRes []scatteredPattern

	// qualifierRe captures a parenthetical scope attached directly after a
	// cluster, e.g. "45×34cm (canvas)".
	qualifierRe *regexp.Regexp

	segmentRe *regexp.Regexp
}

type scatteredPattern struct {
	slot string
	re   *regexp.Regexp
}

// NewExtractor compiles the pattern hierarchy.
func NewExtractor() *Extractor {
	label := `\s*[:.]?\s*`
	return &Extractor{
		labeledRe: regexp.MustCompile(`(?i)\bH` + label + numPat + sepPat +
			`(?:[LW]` + label + numPat + sepPat + `[PD]` + label + numPat +
			`|Ø` + label + numPat + `)`),
		tripletRe:  regexp.MustCompile(`(?i)` + numPat + sepPat + numPat + sepPat + numPat + `\s*cm`),
		pairRe:     regexp.MustCompile(`(?i)` + numPat + sepPat + numPat + `\s*cm`),
		diameterRe: regexp.MustCompile(`(?i)Ø\s*(?:\([^)]*\))?\s*:?\s*` + numPat),
		scatteredRes: []scatteredPattern{
			{"H", regexp.MustCompile(`(?i)\bH\s*\.?\s*:?\s*` + numPat)},
			{"L", regexp.MustCompile(`(?i)\bL\s*\.?\s*:?\s*` + numPat)},
			{"P", regexp.MustCompile(`(?i)\bP\s*\.?\s*:?\s*` + numPat)},
			// A bare "D" label only counts when a unit or axis separator
			// follows, otherwise it collides with edition numbering.
			{"D", regexp.MustCompile(`(?i)\bD\s*\.?\s*:?\s*` + numPat + `\s*(?:cm|[×x])`)},
		},
		qualifierRe: regexp.MustCompile(`^\s*\(([^)]+)\)`),
		segmentRe:   regexp.MustCompile(`[;\n]`),
	}
}

// Extract returns every non-overlapping dimension cluster found in text, in
// reading order per segment and in hierarchy order within a segment.  The
// result may be empty; it is never an error.
func (e *Extractor) Extract(text string) []lot.RawDimensionSet {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sets []lot.RawDimensionSet
	for _, segment := range e.segmentRe.Split(normalize(text), -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		sets = append(sets, e.extractSegment(segment)...)
	}
	return sets
}

// extractSegment runs the hierarchy over one segment, tracking claimed spans
// so a region matched by a higher-priority pattern is never reinterpreted.
func (e *Extractor) extractSegment(segment string) []lot.RawDimensionSet {
	var (
		sets    []lot.RawDimensionSet
		claimed spanList
	)

	// 1+3. Labeled triplet and height-diameter notation.
	for _, m := range e.labeledRe.FindAllStringSubmatchIndex(segment, -1) {
		set := lot.RawDimensionSet{
			H:        parseGroup(segment, m, 1),
			L:        parseGroup(segment, m, 2),
			P:        parseGroup(segment, m, 3),
			Diameter: parseGroup(segment, m, 4),
			Notation: lot.NotationLabeled,
		}
		if set.Diameter != nil {
			set.Notation = lot.NotationHeightDiameter
		}
		sets = append(sets, e.finishSet(set, segment, m[0], m[1], &claimed))
	}

	// 2. Unlabeled numeric triplet.
	for _, m := range e.tripletRe.FindAllStringSubmatchIndex(segment, -1) {
		if claimed.overlaps(m[0], m[1]) {
			continue
		}
		set := lot.RawDimensionSet{
			H:        parseGroup(segment, m, 1),
			L:        parseGroup(segment, m, 2),
			P:        parseGroup(segment, m, 3),
			Notation: lot.NotationTriplet,
		}
		sets = append(sets, e.finishSet(set, segment, m[0], m[1], &claimed))
	}

	// 4. Unlabeled pair.
	for _, m := range e.pairRe.FindAllStringSubmatchIndex(segment, -1) {
		if claimed.overlaps(m[0], m[1]) {
			continue
		}
		set := lot.RawDimensionSet{
			H:        parseGroup(segment, m, 1),
			L:        parseGroup(segment, m, 2),
			Notation: lot.NotationPair,
		}
		sets = append(sets, e.finishSet(set, segment, m[0], m[1], &claimed))
	}

	// 5. Bare diameter.
	for _, m := range e.diameterRe.FindAllStringSubmatchIndex(segment, -1) {
		if claimed.overlaps(m[0], m[1]) {
			continue
		}
		set := lot.RawDimensionSet{
			Diameter: parseGroup(segment, m, 1),
			Notation: lot.NotationDiameter,
		}
		sets = append(sets, e.finishSet(set, segment, m[0], m[1], &claimed))
	}

	if len(sets) > 0 {
		return sets
	}

	// 6. Scattered single labels, only when no multi-axis pattern matched in
	// this segment, to avoid double-counting.
	scattered := lot.RawDimensionSet{Notation: lot.NotationScattered}
	var spanStart, spanEnd int = -1, -1
	for _, sp := range e.scatteredRes {
		m := sp.re.FindStringSubmatchIndex(segment)
		if m == nil || claimed.overlaps(m[0], m[1]) {
			continue
		}
		v := parseGroup(segment, m, 1)
		if v == nil {
			continue
		}
		switch sp.slot {
		case "H":
			scattered.H = v
		case "L":
			scattered.L = v
		case "P":
			scattered.P = v
		case "D":
			scattered.D = v
		}
		claimed = append(claimed, span{m[0], m[1]})
		if spanStart < 0 || m[0] < spanStart {
			spanStart = m[0]
		}
		if m[1] > spanEnd {
			spanEnd = m[1]
		}
	}
	if scattered.Empty() {
		return nil
	}
	scattered.Span = strings.TrimSpace(segment[spanStart:spanEnd])
	return []lot.RawDimensionSet{scattered}
}

// finishSet records the claimed span, captures a trailing parenthetical
// qualifier, and drops sets whose every slot failed to parse.
func (e *Extractor) finishSet(set lot.RawDimensionSet, segment string, start, end int, claimed *spanList) lot.RawDimensionSet {
	*claimed = append(*claimed, span{start, end})
	set.Span = strings.TrimSpace(segment[start:end])
	if q := e.qualifierRe.FindStringSubmatch(segment[end:]); q != nil {
		set.Qualifier = strings.TrimSpace(q[1])
	}
	return set
}

// parseGroup converts capture group idx of match m to a float, normalizing the
// comma decimal separator.  Returns nil when the group did not participate.
func parseGroup(s string, m []int, idx int) *float64 {
	lo, hi := m[2*idx], m[2*idx+1]
	if lo < 0 {
		return nil
	}
	raw := strings.ReplaceAll(s[lo:hi], ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// normalize flattens non-breaking spaces; segment splitting handles newlines.
func normalize(text string) string {
	return strings.ReplaceAll(text, " ", " ")
}

type span struct{ start, end int }

type spanList []span

func (l spanList) overlaps(start, end int) bool {
	for _, s := range l {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}
