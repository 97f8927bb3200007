// Package rules defines the injected rule-set that drives the extraction,
// counting, classification and resolution stages.  Keyword lists, number-word
// tables and thresholds live here as explicit configuration rather than
// package-level state so that multiple rule-sets (e.g. per auction house) can
// coexist and be tested in isolation.
package rules

import (
	"strings"

	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
)

// NumberWord pairs a cardinal number word with its value.  The table is an
// ordered slice, not a map: compound French numerals ("dix-sept") must be
// checked before their suffix words ("sept"), and scanning must be
// deterministic.
type NumberWord struct {
	Word  string `mapstructure:"word" json:"word"`
	Value int    `mapstructure:"value" json:"value"`
}

// RuleSet holds every tunable of the pipeline.  All keyword matching is
// case-insensitive; Normalize lowercases the lists once at load time.
type RuleSet struct {
	// NumberWords maps cardinal number words (French and English) to counts.
	// Longest-first ordering is enforced by Normalize.
	NumberWords []NumberWord `mapstructure:"number_words" json:"number_words"`

	// TwoDMaterials are painting/print/photographic/textile technique terms
	// that classify a lot as flat.
	TwoDMaterials []string `mapstructure:"two_d_materials" json:"two_d_materials"`

	// AssemblageKeywords mark mixed 3D constructions whose depth is
	// unknowable from text.
	AssemblageKeywords []string `mapstructure:"assemblage_keywords" json:"assemblage_keywords"`

	// Force3DKeywords are structural object terms (furniture, luggage) that
	// classify as 3D without the assemblage review flag.
	Force3DKeywords []string `mapstructure:"force_3d_keywords" json:"force_3d_keywords"`

	// PanelKeywords classify as 2D but carry an informational depth note.
	PanelKeywords []string `mapstructure:"panel_keywords" json:"panel_keywords"`

	// MixedTechniqueKeywords trigger the reclassification-to-2D rule when a
	// canvas/support term co-occurs.
	MixedTechniqueKeywords []string `mapstructure:"mixed_technique_keywords" json:"mixed_technique_keywords"`

	// FashionKeywords mark garment lots whose S/M/L sizes are not shipping
	// dimensions.
	FashionKeywords []string `mapstructure:"fashion_keywords" json:"fashion_keywords"`

	// ComplexKeywords mark packing-complexity cues (drawers, mirrors).
	ComplexKeywords []string `mapstructure:"complex_keywords" json:"complex_keywords"`

	// RugKeywords / CurtainKeywords / BookKeywords drive the material-derived
	// override flags of the resolver.
	RugKeywords     []string `mapstructure:"rug_keywords" json:"rug_keywords"`
	CurtainKeywords []string `mapstructure:"curtain_keywords" json:"curtain_keywords"`
	BookKeywords    []string `mapstructure:"book_keywords" json:"book_keywords"`

	// MaterialNames maps source-language material terms to the English names
	// emitted in the MATERIAL column.
	MaterialNames map[string]string `mapstructure:"material_names" json:"material_names"`

	// DefaultDepth2D is the placeholder depth assigned to flat items, in cm.
	DefaultDepth2D float64 `mapstructure:"default_depth_2d" json:"default_depth_2d"`

	// HighCountThreshold is the item count above which per-item replication is
	// considered unreliable and flagged for review.
	HighCountThreshold int `mapstructure:"high_count_threshold" json:"high_count_threshold"`
}

// Default returns the production rule-set for French/English auction catalogs.
func Default() RuleSet {
	return RuleSet{
		NumberWords: []NumberWord{
			{"paire", 2},
			{"deux", 2}, {"trois", 3}, {"quatre", 4}, {"cinq", 5},
			{"six", 6}, {"sept", 7}, {"huit", 8}, {"neuf", 9}, {"dix", 10},
			{"onze", 11}, {"douze", 12}, {"treize", 13}, {"quatorze", 14},
			{"quinze", 15}, {"seize", 16}, {"dix-sept", 17}, {"dix-huit", 18},
			{"dix-neuf", 19}, {"vingt", 20},
			{"two", 2}, {"three", 3}, {"four", 4}, {"five", 5},
			{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9}, {"ten", 10},
			{"twelve", 12}, {"twenty", 20},
		},
		TwoDMaterials: []string{
			"huile", "gouache", "aquarelle", "acrylique", "pastel", "crayon",
			"dessin", "gravure", "lithographie", "sérigraphie", "estampe",
			"papier", "toile", "canvas", "encre", "fusain", "sanguine",
			"collage", "photographie", "tirage argentique",
			"painting", "drawing", "print", "watercolor", "photograph",
		},
		AssemblageKeywords: []string{
			"objets", "objects", "assemblage", "relief", "montage",
			"boite", "boîte", "box", "caisse", "sculpture",
		},
		Force3DKeywords: []string{
			"valise", "suitcase", "malle", "table", "chaise", "fauteuil",
			"meuble", "furniture", "vase", "lampe", "lamp", "bronze",
		},
		PanelKeywords: []string{"panneau", "panel"},
		MixedTechniqueKeywords: []string{
			"technique mixte", "techniques mixtes", "mixed media", "mixed technique",
		},
		FashionKeywords: []string{
			"robe", "trench", "veste", "pantalon", "costume", "jupe",
			"manteau", "chaussures", "sac", "taille", "size",
		},
		ComplexKeywords: []string{
			"tiroir", "drawer", "miroir", "mirror", "siège", "compartiment",
			"lustre", "chandelier",
		},
		RugKeywords:     []string{"tapis", "carpette", "rug", "carpet"},
		CurtainKeywords: []string{"rideau", "rideaux", "curtain", "curtains"},
		BookKeywords:    []string{"livre", "ouvrage", "tome", "volume", "book"},
		MaterialNames: map[string]string{
			"cuivre": "Copper", "laiton": "Brass", "bronze": "Bronze",
			"fer": "Iron", "acier": "Steel", "aluminium": "Aluminum",
			"métal": "Metal", "metal": "Metal",
			"bois": "Wood", "chêne": "Oak", "noyer": "Walnut", "teck": "Teak",
			"palissandre": "Rosewood", "ébène": "Ebony", "châtaignier": "Chestnut",
			"verre": "Glass", "cristal": "Crystal", "céramique": "Ceramic",
			"porcelaine": "Porcelain", "marbre": "Marble", "pierre": "Stone",
			"cuir": "Leather", "textile": "Textile", "tissu": "Fabric",
			"velours": "Velvet", "soie": "Silk", "coton": "Cotton", "lin": "Linen",
			"plastique": "Plastic", "résine": "Resin", "plexiglas": "Plexiglass",
			"toile": "Canvas", "papier": "Paper", "carton": "Cardboard",
		},
		DefaultDepth2D:     5.0,
		HighCountThreshold: 10,
	}
}

// Normalize lowercases all keyword lists and orders NumberWords longest word
// first so compound numerals win over their suffixes.  It returns the receiver
// for chaining.
func (r RuleSet) Normalize() RuleSet {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(strings.TrimSpace(s))
		}
		return out
	}
	r.TwoDMaterials = lower(r.TwoDMaterials)
	r.AssemblageKeywords = lower(r.AssemblageKeywords)
	r.Force3DKeywords = lower(r.Force3DKeywords)
	r.PanelKeywords = lower(r.PanelKeywords)
	r.MixedTechniqueKeywords = lower(r.MixedTechniqueKeywords)
	r.FashionKeywords = lower(r.FashionKeywords)
	r.ComplexKeywords = lower(r.ComplexKeywords)
	r.RugKeywords = lower(r.RugKeywords)
	r.CurtainKeywords = lower(r.CurtainKeywords)
	r.BookKeywords = lower(r.BookKeywords)

	words := make([]NumberWord, len(r.NumberWords))
	copy(words, r.NumberWords)
	for i := range words {
		words[i].Word = strings.ToLower(strings.TrimSpace(words[i].Word))
	}
	// Stable insertion sort by descending word length keeps equal-length
	// entries in their declared order.
	for i := 1; i < len(words); i++ {
		for j := i; j > 0 && len(words[j].Word) > len(words[j-1].Word); j-- {
			words[j], words[j-1] = words[j-1], words[j]
		}
	}
	r.NumberWords = words

	names := make(map[string]string, len(r.MaterialNames))
	for k, v := range r.MaterialNames {
		names[strings.ToLower(strings.TrimSpace(k))] = v
	}
	r.MaterialNames = names

	return r
}

// Validate checks the invariants the pipeline relies on.
func (r RuleSet) Validate() error {
	if r.DefaultDepth2D <= 0 {
		return errors.New(errors.CodeRulesInvalid, "default_depth_2d must be positive")
	}
	if r.HighCountThreshold < 1 {
		return errors.New(errors.CodeRulesInvalid, "high_count_threshold must be at least 1")
	}
	if len(r.NumberWords) == 0 {
		return errors.New(errors.CodeRulesInvalid, "number_words must not be empty")
	}
	for _, w := range r.NumberWords {
		if w.Word == "" || w.Value < 1 {
			return errors.New(errors.CodeRulesInvalid, "number_words entries need a word and a value >= 1")
		}
	}
	return nil
}

// ContainsAny reports whether the lowercased text contains any keyword of the
// list, and returns the first matching keyword.
func ContainsAny(textLower string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(textLower, kw) {
			return kw, true
		}
	}
	return "", false
}
