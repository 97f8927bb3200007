// Package material_classifier decides whether a lot is flat (2D), a physical
// object (3D), or indeterminate, from material and technique keywords.  The
// decision order resolves keyword conflicts toward the more specific rule:
// mixed-technique-on-canvas reclassification beats the generic assemblage
// rule, which beats structural 3D keywords, which beat the panel note.
//
// The classifier also extracts the material names used for the MATERIAL
// output column.
package material_classifier

import (
	"sort"
	"strings"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/rules"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// Rule identifiers recorded on the result for auditability.
const (
	RuleMixedTechnique = "mixed_technique_reclassified"
	RuleTwoDMaterial   = "two_d_material"
	RuleAssemblage     = "assemblage_keyword"
	RuleForce3D        = "structural_keyword"
	RulePanel          = "panel_keyword"
	RuleNoKeyword      = "no_keyword_match"
)

// Result carries the classification, the triggering rule and keyword, and the
// flag/log contributions of this stage.
type Result struct {
	Class   lot.Classification
	Rule    string
	Keyword string
	Flags   []lot.Flag
	Log     []string
}

// Classifier scans text for material and structure cues.  Safe for concurrent
// use.
type Classifier struct {
	rules rules.RuleSet
}

// NewClassifier builds a classifier over a normalized rule-set.
func NewClassifier(rs rules.RuleSet) *Classifier {
	return &Classifier{rules: rs}
}

// Classify returns the 2D/3D/indeterminate decision for text.
func (c *Classifier) Classify(text string) Result {
	textLower := strings.ToLower(text)

	// (b, specific case) Mixed technique on a 2D support reclassifies to 2D
	// even when a generic 3D keyword co-occurs.
	if kw, ok := rules.ContainsAny(textLower, c.rules.MixedTechniqueKeywords); ok {
		if support, on2D := rules.ContainsAny(textLower, c.rules.TwoDMaterials); on2D {
			res := Result{Class: lot.ClassTwoD, Rule: RuleMixedTechnique, Keyword: kw}
			if _, generic3D := rules.ContainsAny(textLower, c.rules.AssemblageKeywords); generic3D {
				res.Flags = append(res.Flags, lot.FlagMixedTechnique)
				res.Log = append(res.Log, `Reclassified to 2D: "`+kw+`" on "`+support+`" outranks assemblage keyword`)
			} else {
				res.Log = append(res.Log, `Classified 2D by "`+kw+`" on "`+support+`"`)
			}
			return res
		}
	}

	// (b) A 2D technique keyword classifies flat.
	if kw, ok := rules.ContainsAny(textLower, c.rules.TwoDMaterials); ok {
		return Result{
			Class:   lot.ClassTwoD,
			Rule:    RuleTwoDMaterial,
			Keyword: kw,
			Log:     []string{`Classified 2D by material keyword "` + kw + `"`},
		}
	}

	// (a) Assemblage / mixed construction: depth is unknowable from text.
	if kw, ok := rules.ContainsAny(textLower, c.rules.AssemblageKeywords); ok {
		return Result{
			Class:   lot.ClassThreeD,
			Rule:    RuleAssemblage,
			Keyword: kw,
			Flags:   []lot.Flag{lot.FlagAssemblage3DCheck},
			Log:     []string{`Classified 3D by assemblage keyword "` + kw + `": depth not derivable, manual check required`},
		}
	}

	// Structural 3D objects (furniture, luggage, vessels).
	if kw, ok := rules.ContainsAny(textLower, c.rules.Force3DKeywords); ok {
		return Result{
			Class:   lot.ClassThreeD,
			Rule:    RuleForce3D,
			Keyword: kw,
			Log:     []string{`Classified 3D by structural keyword "` + kw + `"`},
		}
	}

	// (c) Panel without a contradicting sculptural cue: flat with a depth note.
	if kw, ok := rules.ContainsAny(textLower, c.rules.PanelKeywords); ok {
		return Result{
			Class:   lot.ClassTwoD,
			Rule:    RulePanel,
			Keyword: kw,
			Flags:   []lot.Flag{lot.FlagPanelObject3D},
			Log:     []string{`Classified 2D by panel keyword "` + kw + `": actual depth may exceed the flat default`},
		}
	}

	// (d) No keyword at all.
	return Result{
		Class: lot.ClassIndeterminate,
		Rule:  RuleNoKeyword,
		Log:   []string{"No material keyword matched: classification indeterminate, manual check required"},
	}
}

// ExtractMaterial returns the comma-joined English material names found in
// text, deduplicated in first-occurrence order, or "" when none match.
func (c *Classifier) ExtractMaterial(text string) string {
	textLower := strings.ToLower(text)

	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for term, english := range c.rules.MaterialNames {
		if pos := strings.Index(textLower, term); pos >= 0 {
			hits = append(hits, hit{pos, english})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].name < hits[j].name
	})

	seen := make(map[string]struct{}, len(hits))
	var names []string
	for _, h := range hits {
		if _, dup := seen[h.name]; dup {
			continue
		}
		seen[h.name] = struct{}{}
		names = append(names, h.name)
	}
	return strings.Join(names, ", ")
}
