// Package lot defines the shared data model for auction-lot dimension
// processing: the immutable input description, extracted dimension sets,
// item counts, 2D/3D classification, resolved per-item dimensions,
// processing flags, and the append-only conversion log.
//
// These types are the public surface of the processor: the HTTP API, the CLI,
// the Kafka worker, and the persistence layer all exchange them.  All values
// are plain data — every pipeline stage consumes and produces them without
// shared mutable state, so a LotResult is a pure function of its input text.
package lot

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Classification
// ─────────────────────────────────────────────────────────────────────────────

// Classification is the physical shipping category of a lot.  The string
// values double as the ITEM_TYPE output column.
type Classification string

const (
	// ClassTwoD marks flat artworks (painting, print, textile, photograph)
	// shipped with the nominal placeholder depth.
	ClassTwoD Classification = "2D"

	// ClassThreeD marks physical objects (sculpture, furniture, assemblage)
	// requiring true height/length/depth.
	ClassThreeD Classification = "3D"

	// ClassIndeterminate marks lots whose material could not be established;
	// such lots always require manual review.
	ClassIndeterminate Classification = "MANUAL_CHECK"
)

// ─────────────────────────────────────────────────────────────────────────────
// Dimension extraction
// ─────────────────────────────────────────────────────────────────────────────

// Notation identifies which pattern of the extraction hierarchy produced a
// RawDimensionSet.  It is used downstream for tie-breaking: labeled notations
// outrank positional ones, scattered single labels rank lowest.
type Notation string

const (
	NotationLabeled        Notation = "labeled"         // H 50 × L 40 × P 30 cm
	NotationTriplet        Notation = "triplet"         // 50 × 40 × 30 cm
	NotationHeightDiameter Notation = "height_diameter" // H 50 × Ø 30
	NotationPair           Notation = "pair"            // 162 × 130 cm
	NotationDiameter       Notation = "diameter"        // Ø 30 cm
	NotationScattered      Notation = "scattered"       // H: 97 cm (isolated labels)
)

// RawDimensionSet is one dimension cluster extracted from catalog text.
// Every numeric slot is optional; values are always centimeters.  Qualifier
// carries scoping text attached to the cluster (e.g. "canvas", "avec cadre")
// when the description provides one.
type RawDimensionSet struct {
	H        *float64 `json:"h,omitempty"`
	L        *float64 `json:"l,omitempty"`
	D        *float64 `json:"d,omitempty"`
	P        *float64 `json:"p,omitempty"`
	Diameter *float64 `json:"diameter,omitempty"`

	Notation  Notation `json:"notation"`
	Qualifier string   `json:"qualifier,omitempty"`
	Span      string   `json:"span,omitempty"`
}

// Empty reports whether no numeric slot is populated.
func (s RawDimensionSet) Empty() bool {
	return s.H == nil && s.L == nil && s.D == nil && s.P == nil && s.Diameter == nil
}

// BoundingMeasure returns the largest of H and L, used by the default
// conflict-selection policy.  Missing slots count as zero.
func (s RawDimensionSet) BoundingMeasure() float64 {
	var m float64
	if s.H != nil && *s.H > m {
		m = *s.H
	}
	if s.L != nil && *s.L > m {
		m = *s.L
	}
	return m
}

// String renders the populated slots for log entries, e.g. "H=50 L=40 P=30".
func (s RawDimensionSet) String() string {
	parts := make([]string, 0, 5)
	appendSlot := func(name string, v *float64) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%s", name, FormatDim(*v)))
		}
	}
	appendSlot("H", s.H)
	appendSlot("L", s.L)
	appendSlot("D", s.D)
	appendSlot("P", s.P)
	appendSlot("Ø", s.Diameter)
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

// FormatDim renders a dimension value without a trailing ".0" for whole
// numbers, matching the catalog convention (130, 12.5).
func FormatDim(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// Dim returns a pointer to v.  It exists because the optional dimension slots
// are pointers and literal construction sites need an address.
func Dim(v float64) *float64 { return &v }

// ─────────────────────────────────────────────────────────────────────────────
// Item count
// ─────────────────────────────────────────────────────────────────────────────

// CountProvenance records how an item count was established.
type CountProvenance string

const (
	// CountExplicit — a cardinal number word or digit ("trois vases",
	// "ensemble de 12").
	CountExplicit CountProvenance = "explicit"

	// CountIdiom — a set idiom with a fixed arity ("paire de").
	CountIdiom CountProvenance = "idiom"

	// CountDefault — no count signal found; defaulting to one is the designed
	// fallback, not a failure.
	CountDefault CountProvenance = "default"
)

// ItemCount is the inferred number of physical items in a lot.
type ItemCount struct {
	Count      int             `json:"count"`
	Provenance CountProvenance `json:"provenance"`

	// Ambiguous is set when the text contains a per-unit marker ("chaque",
	// "each") that makes the total unreliable.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Resolved items
// ─────────────────────────────────────────────────────────────────────────────

// ResolvedItem is the final per-item shipping dimension record.  Index runs
// 1..ItemCount.  Unset slots remain nil; a fully unset item (H, L and D all
// nil) forces manual review.
type ResolvedItem struct {
	Index    int      `json:"index"`
	H        *float64 `json:"h,omitempty"`
	L        *float64 `json:"l,omitempty"`
	D        *float64 `json:"d,omitempty"`
	P        *float64 `json:"p,omitempty"`
	Diameter *float64 `json:"diameter,omitempty"`
}

// Unset reports whether H, L and D are all missing.
func (r ResolvedItem) Unset() bool {
	return r.H == nil && r.L == nil && r.D == nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Processing flags
// ─────────────────────────────────────────────────────────────────────────────

// Flag is a named, machine-readable processing marker.
type Flag string

// Review-required flags.  Any of these present on a LotResult forces
// ManualReviewRequired.
const (
	FlagChaqueDetected         Flag = "CHAQUE_DETECTED"
	FlagAssemblage3DCheck      Flag = "ASSEMBLAGE_3D_MANUAL_CHECK"
	FlagMultipleDimensionsItem Flag = "MULTIPLE_DIMENSIONS_SINGLE_ITEM"
	FlagDimensionCountMismatch Flag = "DIMENSION_COUNT_MISMATCH"
	FlagHeightOnlyObject       Flag = "HEIGHT_ONLY_OBJECT"
	FlagHighCount              Flag = "HIGH_COUNT"
	FlagNoDimensions           Flag = "NO_DIMENSIONS"
	FlagFashionItem            Flag = "FASHION_ITEM"
	FlagDNotationDepth         Flag = "D_NOTATION_DEPTH"
	FlagRugLPPattern           Flag = "RUG_L_P_PATTERN"
	FlagCurtainPairCount       Flag = "CURTAIN_PAIR_COUNT"
	FlagBookDimensionCheck     Flag = "BOOK_DIMENSION_CHECK"
	FlagOpenClosedState        Flag = "OPEN_CLOSED_STATE"
)

// Informational flags.  Recorded for auditability; they never force review on
// their own.
const (
	FlagPanelObject3D    Flag = "PANEL_OBJECT_3D"
	FlagMixedTechnique   Flag = "MIXED_TECHNIQUE_RECLASSIFIED"
	FlagComplexObject    Flag = "COMPLEX_OBJECT"
	FlagDepthDerived     Flag = "DEPTH_DERIVED"
	FlagDepthDefaulted2D Flag = "DEPTH_DEFAULTED_2D"
	FlagReplicated       Flag = "DIMENSIONS_REPLICATED"
)

// reviewRequired is the authoritative severity registry.  Flags absent from
// this set are informational.
var reviewRequired = map[Flag]struct{}{
	FlagChaqueDetected:         {},
	FlagAssemblage3DCheck:      {},
	FlagMultipleDimensionsItem: {},
	FlagDimensionCountMismatch: {},
	FlagHeightOnlyObject:       {},
	FlagHighCount:              {},
	FlagNoDimensions:           {},
	FlagFashionItem:            {},
	FlagDNotationDepth:         {},
	FlagRugLPPattern:           {},
	FlagCurtainPairCount:       {},
	FlagBookDimensionCheck:     {},
	FlagOpenClosedState:        {},
}

// ReviewRequired reports whether the flag forces manual review.
func (f Flag) ReviewRequired() bool {
	_, ok := reviewRequired[f]
	return ok
}

// FlagSet is an ordered, deduplicated collection of flags.  Insertion order is
// preserved; re-adding a present flag is a no-op.  The zero value is ready to
// use.
type FlagSet struct {
	flags []Flag
}

// Add appends f unless it is already present.  It reports whether the set
// changed.
func (fs *FlagSet) Add(f Flag) bool {
	if fs.Contains(f) {
		return false
	}
	fs.flags = append(fs.flags, f)
	return true
}

// AddAll appends each flag in order, skipping duplicates.
func (fs *FlagSet) AddAll(flags ...Flag) {
	for _, f := range flags {
		fs.Add(f)
	}
}

// Contains reports whether f is present.
func (fs *FlagSet) Contains(f Flag) bool {
	for _, have := range fs.flags {
		if have == f {
			return true
		}
	}
	return false
}

// List returns the flags in insertion order.  The returned slice is a copy.
func (fs *FlagSet) List() []Flag {
	out := make([]Flag, len(fs.flags))
	copy(out, fs.flags)
	return out
}

// Len returns the number of distinct flags.
func (fs *FlagSet) Len() int { return len(fs.flags) }

// AnyReviewRequired reports whether at least one review-required flag is
// present.
func (fs *FlagSet) AnyReviewRequired() bool {
	for _, f := range fs.flags {
		if f.ReviewRequired() {
			return true
		}
	}
	return false
}

// Join renders the flags as a single separator-joined string, the
// PROCESSING_FLAGS output representation.
func (fs *FlagSet) Join(sep string) string {
	parts := make([]string, len(fs.flags))
	for i, f := range fs.flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, sep)
}

// MarshalJSON renders the set as a plain JSON array in insertion order.
func (fs FlagSet) MarshalJSON() ([]byte, error) {
	if fs.flags == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(fs.flags)
}

// UnmarshalJSON restores the set from a JSON array, deduplicating while
// preserving order.
func (fs *FlagSet) UnmarshalJSON(data []byte) error {
	var raw []Flag
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fs.flags = nil
	fs.AddAll(raw...)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Conversion log
// ─────────────────────────────────────────────────────────────────────────────

// ConversionLog is the append-only, ordered transparency trail of every
// transformation decision.  Entries are never reordered or deduplicated.
type ConversionLog struct {
	entries []string
}

// Append adds one entry.
func (l *ConversionLog) Append(entry string) {
	l.entries = append(l.entries, entry)
}

// Appendf adds one formatted entry.
func (l *ConversionLog) Appendf(format string, args ...interface{}) {
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

// Extend appends every given entry, in order.
func (l *ConversionLog) Extend(entries ...string) {
	l.entries = append(l.entries, entries...)
}

// Entries returns a copy of the log lines in append order.
func (l *ConversionLog) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *ConversionLog) Len() int { return len(l.entries) }

// Join renders the log as a single separator-joined string, the
// CONVERSION_LOG output representation.
func (l *ConversionLog) Join(sep string) string {
	return strings.Join(l.entries, sep)
}

// MarshalJSON renders the log as a plain JSON array.
func (l ConversionLog) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

// UnmarshalJSON restores the log from a JSON array.
func (l *ConversionLog) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &l.entries)
}

// ─────────────────────────────────────────────────────────────────────────────
// Lot input and result
// ─────────────────────────────────────────────────────────────────────────────

// LotDescription is the immutable per-lot input: an opaque identifier and the
// raw free-text catalog description.  Language is not pre-declared — mixed
// French/English text is expected.
type LotDescription struct {
	LotID string `json:"lot_id"`
	Text  string `json:"text"`
}

// LotResult is the complete structured outcome of processing one description.
type LotResult struct {
	Lot            LotDescription `json:"lot"`
	Count          ItemCount      `json:"count"`
	Classification Classification `json:"classification"`

	// ClassificationRule records the keyword/rule that triggered the
	// classification, for auditability.
	ClassificationRule string `json:"classification_rule,omitempty"`

	// Material is the comma-joined English material names recognised in the
	// text (e.g. "Bronze, Marble"), empty when none matched.
	Material string `json:"material,omitempty"`

	Items   []ResolvedItem    `json:"items"`
	RawSets []RawDimensionSet `json:"raw_sets,omitempty"`
	Flags   FlagSet           `json:"flags"`
	Log     ConversionLog     `json:"log"`

	// ManualReviewRequired is true iff the classification is indeterminate,
	// any review-required flag is present, or some item has H, L and D all
	// unset.  It is derived, never set directly by pipeline stages.
	ManualReviewRequired bool `json:"manual_review_required"`
}
