// Package dimension_resolver turns raw extracted dimension sets into final
// per-item shipping dimensions.  It normalizes 2D orientation (L ≥ H), assigns
// the placeholder 2D depth, derives missing 3D depth, reconciles the number of
// dimension sets with the item count via replication or truncation, and
// applies the material-derived override flags (fashion sizing, D-notation,
// rugs, curtains, book volumes, open/closed state).
//
// Every decision that changes a value is logged; whenever two policies could
// apply and the choice affects shipping-relevant numbers, the resolver raises
// a review-required flag instead of guessing silently.
package dimension_resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/rules"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// SelectionPolicy picks one of several conflicting dimension sets and returns
// its index.  "Largest" is a heuristic, not a semantic judgment, so the policy
// is swappable rather than hard-coded.
type SelectionPolicy func(sets []lot.RawDimensionSet) int

// LargestBoundingMeasure selects the set with the greatest max(H, L).  Ties
// keep the earliest set, which also favors higher-confidence notations since
// extraction emits them first.
func LargestBoundingMeasure(sets []lot.RawDimensionSet) int {
	best, bestMeasure := 0, -1.0
	for i, s := range sets {
		if m := s.BoundingMeasure(); m > bestMeasure {
			best, bestMeasure = i, m
		}
	}
	return best
}

// Input is everything the resolver needs for one lot.
type Input struct {
	Text  string
	Sets  []lot.RawDimensionSet
	Count lot.ItemCount
	Class lot.Classification
}

// Output carries the resolved items plus this stage's flag and log
// contributions.
type Output struct {
	Items []lot.ResolvedItem
	Flags []lot.Flag
	Log   []string
}

func (o *Output) flag(f lot.Flag, logEntry string) {
	o.Flags = append(o.Flags, f)
	o.Log = append(o.Log, logEntry)
}

// Resolver applies the depth-assignment and replication policies.  Safe for
// concurrent use.
type Resolver struct {
	rules  rules.RuleSet
	policy SelectionPolicy

	fashionSizeRe *regexp.Regexp
	sizeTokenRe   *regexp.Regexp
	dNotationRe   *regexp.Regexp
	pairWordRe    *regexp.Regexp
	openClosedRe  *regexp.Regexp
	digitRe       *regexp.Regexp
}

// NewResolver builds a resolver over a normalized rule-set.  A nil policy
// defaults to LargestBoundingMeasure.
func NewResolver(rs rules.RuleSet, policy SelectionPolicy) *Resolver {
	if policy == nil {
		policy = LargestBoundingMeasure
	}
	return &Resolver{
		rules:         rs,
		policy:        policy,
		fashionSizeRe: regexp.MustCompile(`(?i)\b(?:taille|size)\s*:?\s*(?:xs|s|m|l|xl|xxl|\d{2,3})\b`),
		// Bare s/m/l collide with French elisions ("l'objet"), so the
		// keyword-assisted branch only accepts unambiguous multi-letter sizes.
		sizeTokenRe:   regexp.MustCompile(`(?i)\b(?:xs|xl|xxl)\b`),
		dNotationRe:   regexp.MustCompile(`(?i)\bD\s*[:.]\s*`),
		pairWordRe:    regexp.MustCompile(`(?i)\bpaires?\b|\bpairs?\b`),
		openClosedRe:  regexp.MustCompile(`(?i)\b(?:ouvert|fermé|ferme)\b`),
		digitRe:       regexp.MustCompile(`\d`),
	}
}

// Resolve produces exactly Count items — via replication or truncation, never
// a mismatch — then applies the text-level override flags.
func (r *Resolver) Resolve(in Input) Output {
	var out Output
	textLower := strings.ToLower(in.Text)
	count := in.Count.Count
	if count < 1 {
		count = 1
	}

	sets := r.suppressBookVolumes(textLower, in.Sets, &out)

	if count > r.rules.HighCountThreshold {
		out.flag(lot.FlagHighCount,
			fmt.Sprintf("Item count %d exceeds %d: per-item replication unreliable, manual review required",
				count, r.rules.HighCountThreshold))
	}

	switch {
	case len(sets) == 0:
		out.flag(lot.FlagNoDimensions, "No dimensions extracted from description")
		for i := 1; i <= count; i++ {
			out.Items = append(out.Items, lot.ResolvedItem{Index: i})
		}

	case len(sets) == 1:
		item := r.normalizeSet(sets[0], in.Class, &out)
		out.Items = r.replicate(item, count, in.Count.Ambiguous, &out)

	case count == 1:
		idx := r.policy(sets)
		out.flag(lot.FlagMultipleDimensionsItem,
			fmt.Sprintf("%d dimension sets for a single item: selected [%s] by largest bounding measure, discarded %s",
				len(sets), sets[idx], describeOthers(sets, idx)))
		item := r.normalizeSet(sets[idx], in.Class, &out)
		out.Items = []lot.ResolvedItem{item}

	case len(sets) == count:
		out.Log = append(out.Log, fmt.Sprintf("Assigned %d dimension sets to %d items in order", len(sets), count))
		for i, s := range sets {
			item := r.normalizeSet(s, in.Class, &out)
			item.Index = i + 1
			out.Items = append(out.Items, item)
		}

	case len(sets) < count:
		idx := r.policy(sets)
		out.flag(lot.FlagDimensionCountMismatch,
			fmt.Sprintf("%d dimension sets for %d items: selected [%s] by largest bounding measure", len(sets), count, sets[idx]))
		item := r.normalizeSet(sets[idx], in.Class, &out)
		out.Items = r.replicate(item, count, in.Count.Ambiguous, &out)

	default: // more sets than items
		if in.Count.Ambiguous {
			// "chaque" context: the sets are per-unit measurements; pick one
			// and replicate.
			idx := r.policy(sets)
			out.Log = append(out.Log,
				fmt.Sprintf("%d dimension sets with per-unit context: treating [%s] as the per-item measurement", len(sets), sets[idx]))
			item := r.normalizeSet(sets[idx], in.Class, &out)
			out.Items = r.replicate(item, count, true, &out)
		} else {
			out.flag(lot.FlagDimensionCountMismatch,
				fmt.Sprintf("%d dimension sets for %d items: kept the first %d in order, discarded %d",
					len(sets), count, count, len(sets)-count))
			for i := 0; i < count; i++ {
				item := r.normalizeSet(sets[i], in.Class, &out)
				item.Index = i + 1
				out.Items = append(out.Items, item)
			}
		}
	}

	r.applyOverrides(textLower, sets, &out)
	return out
}

// replicate copies item across count slots, logging the approximation when
// count exceeds one.
func (r *Resolver) replicate(item lot.ResolvedItem, count int, perUnit bool, out *Output) []lot.ResolvedItem {
	items := make([]lot.ResolvedItem, count)
	for i := range items {
		items[i] = item
		items[i].Index = i + 1
	}
	if count > 1 {
		out.Flags = append(out.Flags, lot.FlagReplicated)
		if perUnit {
			out.Log = append(out.Log, fmt.Sprintf("Replicated per-unit dimensions to match %d items", count))
		} else {
			out.Log = append(out.Log, fmt.Sprintf("Replicated dimensions to match %d items", count))
		}
	}
	return items
}

// normalizeSet applies the orientation and depth policy for one set.
func (r *Resolver) normalizeSet(set lot.RawDimensionSet, class lot.Classification, out *Output) lot.ResolvedItem {
	item := lot.ResolvedItem{Index: 1, H: set.H, L: set.L, D: set.D, P: set.P, Diameter: set.Diameter}

	switch class {
	case lot.ClassTwoD:
		if item.Diameter != nil && item.H == nil && item.L == nil {
			item.H = item.Diameter
			item.L = item.Diameter
			out.Log = append(out.Log, fmt.Sprintf("H=Ø, L=Ø (circular flat object, Ø=%s)", lot.FormatDim(*item.Diameter)))
		} else if item.H != nil && item.L != nil && *item.H > *item.L {
			item.H, item.L = item.L, item.H
			out.Log = append(out.Log, "L=max(H,L) (2D orientation)")
		}
		d := r.rules.DefaultDepth2D
		item.D = &d
		out.Flags = append(out.Flags, lot.FlagDepthDefaulted2D)
		out.Log = append(out.Log, fmt.Sprintf("D=%s (2D)", lot.FormatDim(d)))

	case lot.ClassThreeD:
		switch {
		case item.Diameter != nil && item.L == nil && item.D == nil:
			item.L = item.Diameter
			item.D = item.Diameter
			out.Log = append(out.Log, "L=Ø, D=Ø (cylindrical)")
		case item.D != nil:
			// All axes explicit; use as-is.
		case item.P != nil:
			item.D = item.P
			out.Log = append(out.Log, "D=P")
		case item.H != nil && item.L != nil:
			item.D = item.L
			out.Flags = append(out.Flags, lot.FlagDepthDerived)
			out.Log = append(out.Log, "D=L (approximated, not a measurement)")
		case item.H != nil && item.L == nil:
			out.flag(lot.FlagHeightOnlyObject,
				fmt.Sprintf("Only a height (%s cm) extracted: length and depth unknown", lot.FormatDim(*item.H)))
		}

	default:
		// Indeterminate classification already forces manual review; keep the
		// extracted values untouched rather than derive depth on a guess.  A
		// lone height is still worth calling out explicitly.
		if item.H != nil && item.L == nil && item.D == nil && item.Diameter == nil {
			out.flag(lot.FlagHeightOnlyObject,
				fmt.Sprintf("Only a height (%s cm) extracted: length and depth unknown", lot.FormatDim(*item.H)))
		}
	}

	return item
}

// suppressBookVolumes drops scattered single-value sets from book lots whose
// numeric content is plausibly a volume number, not a dimension.
func (r *Resolver) suppressBookVolumes(textLower string, sets []lot.RawDimensionSet, out *Output) []lot.RawDimensionSet {
	if _, ok := rules.ContainsAny(textLower, r.rules.BookKeywords); !ok {
		return sets
	}
	if len(sets) == 0 {
		if r.digitRe.MatchString(textLower) {
			out.flag(lot.FlagBookDimensionCheck, "Book lot with numeric content but no measurable dimensions: volume numbering suspected")
		}
		return sets
	}
	for _, s := range sets {
		if s.Notation != lot.NotationScattered || slotCount(s) != 1 {
			return sets
		}
	}
	out.flag(lot.FlagBookDimensionCheck,
		fmt.Sprintf("Book lot: suppressed %d single-value set(s) as probable volume numbering", len(sets)))
	return nil
}

// applyOverrides raises the material-derived flags after geometric resolution.
func (r *Resolver) applyOverrides(textLower string, sets []lot.RawDimensionSet, out *Output) {
	if r.fashionSizeRe.MatchString(textLower) {
		out.flag(lot.FlagFashionItem, "Fashion sizing notation detected: sizes are not shipping dimensions")
	} else if _, ok := rules.ContainsAny(textLower, r.rules.FashionKeywords); ok && r.sizeTokenRe.MatchString(textLower) {
		out.flag(lot.FlagFashionItem, "Garment keyword with size token detected: sizes are not shipping dimensions")
	}

	if r.dNotationRe.MatchString(textLower) && !anyDepthCaptured(sets) {
		out.flag(lot.FlagDNotationDepth, `"D" depth notation present but no depth value could be paired with it`)
	}

	if _, ok := rules.ContainsAny(textLower, r.rules.RugKeywords); ok && anyFlatPattern(sets) {
		out.flag(lot.FlagRugLPPattern, "Rug with L×P measurements: flat-vs-rolled shipping ambiguity")
	}

	if _, ok := rules.ContainsAny(textLower, r.rules.CurtainKeywords); ok && r.pairWordRe.MatchString(textLower) {
		out.flag(lot.FlagCurtainPairCount, `Curtain lot with "paire": count may describe panels, not packages`)
	}

	if r.openClosedRe.MatchString(textLower) {
		out.flag(lot.FlagOpenClosedState, "Open/closed state mentioned: dimensions may describe two configurations")
	}

	if kw, ok := rules.ContainsAny(textLower, r.rules.ComplexKeywords); ok {
		out.Flags = append(out.Flags, lot.FlagComplexObject)
		out.Log = append(out.Log, `Packing-complexity cue "`+kw+`" noted`)
	}
}

func describeOthers(sets []lot.RawDimensionSet, chosen int) string {
	var parts []string
	for i, s := range sets {
		if i == chosen {
			continue
		}
		parts = append(parts, "["+s.String()+"]")
	}
	return strings.Join(parts, " ")
}

func slotCount(s lot.RawDimensionSet) int {
	n := 0
	for _, v := range []*float64{s.H, s.L, s.D, s.P, s.Diameter} {
		if v != nil {
			n++
		}
	}
	return n
}

func anyDepthCaptured(sets []lot.RawDimensionSet) bool {
	for _, s := range sets {
		if s.D != nil || s.P != nil || s.Diameter != nil {
			return true
		}
	}
	return false
}

func anyFlatPattern(sets []lot.RawDimensionSet) bool {
	for _, s := range sets {
		if s.Notation == lot.NotationPair || s.Notation == lot.NotationTriplet || (s.L != nil && s.P != nil) {
			return true
		}
	}
	return false
}
