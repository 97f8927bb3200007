package dimension_resolver

import (
	"strings"
	"testing"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/rules"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(rules.Default().Normalize(), nil)
}

func one(count int) lot.ItemCount {
	return lot.ItemCount{Count: count, Provenance: lot.CountDefault}
}

func hasFlag(out Output, f lot.Flag) bool {
	for _, got := range out.Flags {
		if got == f {
			return true
		}
	}
	return false
}

func hasLogContaining(out Output, substr string) bool {
	for _, e := range out.Log {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestTwoDOrientationSwapAndDefaultDepth(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Paire de gravures encadrées, 162 x 130 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(162), L: lot.Dim(130), Notation: lot.NotationPair}},
		Count: lot.ItemCount{Count: 2, Provenance: lot.CountIdiom},
		Class: lot.ClassTwoD,
	})
	if len(out.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(out.Items))
	}
	for _, item := range out.Items {
		if *item.H != 130 || *item.L != 162 {
			t.Errorf("item %d: H=%v L=%v, want H=130 L=162", item.Index, *item.H, *item.L)
		}
		if *item.D != 5 {
			t.Errorf("item %d: D=%v, want 5", item.Index, *item.D)
		}
	}
	if !hasLogContaining(out, "L=max(H,L)") || !hasLogContaining(out, "D=5 (2D)") {
		t.Errorf("missing orientation/depth log entries: %v", out.Log)
	}
	for _, f := range out.Flags {
		if f.ReviewRequired() {
			t.Errorf("unexpected review-required flag %s", f)
		}
	}
}

func TestTwoDOrientationAlreadyCorrect(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Gravure, 30 x 40 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(30), L: lot.Dim(40), Notation: lot.NotationPair}},
		Count: one(1),
		Class: lot.ClassTwoD,
	})
	if *out.Items[0].H != 30 || *out.Items[0].L != 40 {
		t.Errorf("H=%v L=%v, want unchanged 30/40", *out.Items[0].H, *out.Items[0].L)
	}
	if hasLogContaining(out, "L=max(H,L)") {
		t.Error("no swap happened, no swap log expected")
	}
}

func TestThreeDDepthFromP(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Commode, H: 85 x L: 120 x P: 55 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(85), L: lot.Dim(120), P: lot.Dim(55), Notation: lot.NotationLabeled}},
		Count: one(1),
		Class: lot.ClassThreeD,
	})
	if *out.Items[0].D != 55 {
		t.Errorf("D = %v, want 55 (from P)", *out.Items[0].D)
	}
	if !hasLogContaining(out, "D=P") {
		t.Errorf("missing D=P log: %v", out.Log)
	}
}

func TestThreeDDepthDerivedFromL(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Vase, 30 x 20 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(30), L: lot.Dim(20), Notation: lot.NotationPair}},
		Count: one(1),
		Class: lot.ClassThreeD,
	})
	if *out.Items[0].D != 20 {
		t.Errorf("D = %v, want 20 (derived from L)", *out.Items[0].D)
	}
	if !hasFlag(out, lot.FlagDepthDerived) {
		t.Error("expected informational depth-derived flag")
	}
	if !hasLogContaining(out, "D=L") {
		t.Errorf("missing D=L log: %v", out.Log)
	}
}

func TestThreeDCylinderFromDiameter(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Vase en verre, H: 45 × Ø 18 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(45), Diameter: lot.Dim(18), Notation: lot.NotationHeightDiameter}},
		Count: one(1),
		Class: lot.ClassThreeD,
	})
	item := out.Items[0]
	if *item.H != 45 || *item.L != 18 || *item.D != 18 {
		t.Errorf("got H=%v L=%v D=%v, want 45/18/18", *item.H, *item.L, *item.D)
	}
	if !hasLogContaining(out, "cylindrical") {
		t.Errorf("missing cylinder log: %v", out.Log)
	}
}

func TestThreeDHeightOnly(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Canne en bois sculpté, H 97 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(97), Notation: lot.NotationScattered}},
		Count: one(1),
		Class: lot.ClassThreeD,
	})
	item := out.Items[0]
	if *item.H != 97 || item.L != nil || item.D != nil {
		t.Errorf("got H=%v L=%v D=%v, want only H set", item.H, item.L, item.D)
	}
	if !hasFlag(out, lot.FlagHeightOnlyObject) {
		t.Errorf("expected height-only flag, got %v", out.Flags)
	}
}

func TestIndeterminateKeepsValuesUntouched(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Pièce ancienne, 30 x 20 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(30), L: lot.Dim(20), Notation: lot.NotationPair}},
		Count: one(1),
		Class: lot.ClassIndeterminate,
	})
	item := out.Items[0]
	if *item.H != 30 || *item.L != 20 || item.D != nil {
		t.Errorf("got H=%v L=%v D=%v, want verbatim 30/20 with no depth", item.H, item.L, item.D)
	}
}

func TestNoDimensionsStillEmitsCountItems(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Trois bibelots divers",
		Sets:  nil,
		Count: one(3),
		Class: lot.ClassIndeterminate,
	})
	if !hasFlag(out, lot.FlagNoDimensions) {
		t.Fatalf("expected no-dimensions flag, got %v", out.Flags)
	}
	if len(out.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(out.Items))
	}
	for _, item := range out.Items {
		if !item.Unset() {
			t.Errorf("item %d should have no dimensions", item.Index)
		}
	}
}

func TestReplicationToMatchCount(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Suite de 4 chaises, H: 90 x L: 45 x P: 40 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(90), L: lot.Dim(45), P: lot.Dim(40), Notation: lot.NotationLabeled}},
		Count: lot.ItemCount{Count: 4, Provenance: lot.CountExplicit},
		Class: lot.ClassThreeD,
	})
	if len(out.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(out.Items))
	}
	for i, item := range out.Items {
		if item.Index != i+1 {
			t.Errorf("item %d has index %d", i, item.Index)
		}
		if *item.H != 90 || *item.L != 45 || *item.D != 40 {
			t.Errorf("item %d not replicated: %+v", i, item)
		}
	}
	if !hasFlag(out, lot.FlagReplicated) || !hasLogContaining(out, "Replicated dimensions to match 4 items") {
		t.Errorf("missing replication flag/log: %v / %v", out.Flags, out.Log)
	}
}

func TestMultipleSetsSingleItemUsesPolicy(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text: "Tableau, 40 x 30 cm (à vue), 55 x 45 cm (avec cadre)",
		Sets: []lot.RawDimensionSet{
			{H: lot.Dim(40), L: lot.Dim(30), Notation: lot.NotationPair, Qualifier: "à vue"},
			{H: lot.Dim(55), L: lot.Dim(45), Notation: lot.NotationPair, Qualifier: "avec cadre"},
		},
		Count: one(1),
		Class: lot.ClassTwoD,
	})
	if len(out.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(out.Items))
	}
	// Framed measurement wins: 55 > 40 bounding measure, then 2D swap.
	if *out.Items[0].H != 45 || *out.Items[0].L != 55 {
		t.Errorf("got H=%v L=%v, want 45/55 from the larger set", *out.Items[0].H, *out.Items[0].L)
	}
	if !hasFlag(out, lot.FlagMultipleDimensionsItem) {
		t.Errorf("expected multiple-dimensions flag, got %v", out.Flags)
	}
	if !hasLogContaining(out, "discarded") {
		t.Errorf("selection log must name the discarded sets: %v", out.Log)
	}
}

func TestCustomSelectionPolicy(t *testing.T) {
	first := func(sets []lot.RawDimensionSet) int { return 0 }
	r := NewResolver(rules.Default().Normalize(), first)
	out := r.Resolve(Input{
		Text: "Tableau, 40 x 30 cm, 55 x 45 cm",
		Sets: []lot.RawDimensionSet{
			{H: lot.Dim(40), L: lot.Dim(30), Notation: lot.NotationPair},
			{H: lot.Dim(55), L: lot.Dim(45), Notation: lot.NotationPair},
		},
		Count: one(1),
		Class: lot.ClassTwoD,
	})
	if *out.Items[0].L != 40 {
		t.Errorf("custom policy ignored: L=%v, want 40", *out.Items[0].L)
	}
}

func TestEqualSetsAssignedInOrder(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text: "Deux vases, H: 30 × Ø 12 cm ; H: 25 × Ø 10 cm",
		Sets: []lot.RawDimensionSet{
			{H: lot.Dim(30), Diameter: lot.Dim(12), Notation: lot.NotationHeightDiameter},
			{H: lot.Dim(25), Diameter: lot.Dim(10), Notation: lot.NotationHeightDiameter},
		},
		Count: lot.ItemCount{Count: 2, Provenance: lot.CountExplicit},
		Class: lot.ClassThreeD,
	})
	if len(out.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(out.Items))
	}
	if *out.Items[0].H != 30 || *out.Items[1].H != 25 {
		t.Errorf("order not preserved: %v / %v", *out.Items[0].H, *out.Items[1].H)
	}
	if hasFlag(out, lot.FlagDimensionCountMismatch) {
		t.Error("equal sets and count is not a mismatch")
	}
}

func TestMoreSetsThanItemsTruncates(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text: "Deux gravures, 30 x 20 cm, 40 x 30 cm, 50 x 40 cm",
		Sets: []lot.RawDimensionSet{
			{H: lot.Dim(30), L: lot.Dim(20), Notation: lot.NotationPair},
			{H: lot.Dim(40), L: lot.Dim(30), Notation: lot.NotationPair},
			{H: lot.Dim(50), L: lot.Dim(40), Notation: lot.NotationPair},
		},
		Count: lot.ItemCount{Count: 2, Provenance: lot.CountExplicit},
		Class: lot.ClassTwoD,
	})
	if len(out.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(out.Items))
	}
	if !hasFlag(out, lot.FlagDimensionCountMismatch) {
		t.Errorf("expected mismatch flag, got %v", out.Flags)
	}
}

func TestChaqueExtraSetsReplicatePerUnit(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text: "Paire de vases, chaque 30 x 12 cm",
		Sets: []lot.RawDimensionSet{
			{H: lot.Dim(30), L: lot.Dim(12), Notation: lot.NotationPair},
		},
		Count: lot.ItemCount{Count: 2, Provenance: lot.CountIdiom, Ambiguous: true},
		Class: lot.ClassThreeD,
	})
	if len(out.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(out.Items))
	}
	if *out.Items[0].H != 30 || *out.Items[1].H != 30 {
		t.Errorf("per-unit replication failed: %+v", out.Items)
	}
	if !hasLogContaining(out, "per-unit") {
		t.Errorf("missing per-unit log: %v", out.Log)
	}
}

func TestHighCountFlag(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Ensemble de 12 assiettes, Ø 24 cm",
		Sets:  []lot.RawDimensionSet{{Diameter: lot.Dim(24), Notation: lot.NotationDiameter}},
		Count: lot.ItemCount{Count: 12, Provenance: lot.CountExplicit},
		Class: lot.ClassThreeD,
	})
	if !hasFlag(out, lot.FlagHighCount) {
		t.Errorf("count 12 should raise the high-count flag, got %v", out.Flags)
	}
	if len(out.Items) != 12 {
		t.Errorf("items = %d, want 12", len(out.Items))
	}
}

func TestFashionSizingFlag(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Robe du soir en soie, taille M",
		Sets:  nil,
		Count: one(1),
		Class: lot.ClassIndeterminate,
	})
	if !hasFlag(out, lot.FlagFashionItem) {
		t.Errorf("expected fashion flag, got %v", out.Flags)
	}
}

func TestFashionFlagNotRaisedByElision(t *testing.T) {
	r := newTestResolver(t)
	// "l'ensemble" must not read as a size-L token.
	out := r.Resolve(Input{
		Text:  "Veste et pantalon, l'ensemble en laine, 60 x 40 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(60), L: lot.Dim(40), Notation: lot.NotationPair}},
		Count: one(1),
		Class: lot.ClassIndeterminate,
	})
	if hasFlag(out, lot.FlagFashionItem) {
		t.Errorf("elided article misread as a size token: %v", out.Flags)
	}
}

func TestDNotationWithoutCapturedDepth(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Meuble, H: 120 cm, D: profondeur variable",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(120), Notation: lot.NotationScattered}},
		Count: one(1),
		Class: lot.ClassThreeD,
	})
	if !hasFlag(out, lot.FlagDNotationDepth) {
		t.Errorf("expected unpaired-D flag, got %v", out.Flags)
	}
}

func TestDNotationSuppressedWhenDepthCaptured(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Meuble, H: 120 x L: 80 x D: 40 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(120), L: lot.Dim(80), D: lot.Dim(40), Notation: lot.NotationLabeled}},
		Count: one(1),
		Class: lot.ClassThreeD,
	})
	if hasFlag(out, lot.FlagDNotationDepth) {
		t.Errorf("depth was captured, flag not expected: %v", out.Flags)
	}
}

func TestRugFlag(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Tapis persan, 300 x 200 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(300), L: lot.Dim(200), Notation: lot.NotationPair}},
		Count: one(1),
		Class: lot.ClassIndeterminate,
	})
	if !hasFlag(out, lot.FlagRugLPPattern) {
		t.Errorf("expected rug flag, got %v", out.Flags)
	}
}

func TestCurtainPairFlag(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Paire de rideaux en damas, 250 x 140 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(250), L: lot.Dim(140), Notation: lot.NotationPair}},
		Count: lot.ItemCount{Count: 2, Provenance: lot.CountIdiom},
		Class: lot.ClassIndeterminate,
	})
	if !hasFlag(out, lot.FlagCurtainPairCount) {
		t.Errorf("expected curtain flag, got %v", out.Flags)
	}
}

func TestBookVolumeSuppression(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Oeuvres complètes, 12 volumes reliés, tome 3 manquant",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(3), Notation: lot.NotationScattered}},
		Count: one(1),
		Class: lot.ClassIndeterminate,
	})
	if !hasFlag(out, lot.FlagBookDimensionCheck) {
		t.Fatalf("expected book flag, got %v", out.Flags)
	}
	if !out.Items[0].Unset() {
		t.Errorf("volume number must not become a dimension: %+v", out.Items[0])
	}
	if !hasFlag(out, lot.FlagNoDimensions) {
		t.Errorf("suppression leaves no usable sets: %v", out.Flags)
	}
}

func TestBookMultiAxisSetsNotSuppressed(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Livre illustré, 32 x 25 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(32), L: lot.Dim(25), Notation: lot.NotationPair}},
		Count: one(1),
		Class: lot.ClassTwoD,
	})
	if hasFlag(out, lot.FlagBookDimensionCheck) {
		t.Errorf("a real pair measurement is not a volume number: %v", out.Flags)
	}
	if *out.Items[0].L != 32 {
		t.Errorf("L=%v, want 32 after 2D swap", *out.Items[0].L)
	}
}

func TestOpenClosedStateFlag(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Table à volets, 120 x 80 cm (ouvert), 60 x 80 cm (fermé)",
		Sets: []lot.RawDimensionSet{
			{H: lot.Dim(120), L: lot.Dim(80), Notation: lot.NotationPair, Qualifier: "ouvert"},
			{H: lot.Dim(60), L: lot.Dim(80), Notation: lot.NotationPair, Qualifier: "fermé"},
		},
		Count: one(1),
		Class: lot.ClassThreeD,
	})
	if !hasFlag(out, lot.FlagOpenClosedState) {
		t.Errorf("expected open/closed flag, got %v", out.Flags)
	}
	if len(out.Items) != 1 {
		t.Errorf("lot still resolves to one item, got %d", len(out.Items))
	}
}

func TestComplexObjectIsInformational(t *testing.T) {
	r := newTestResolver(t)
	out := r.Resolve(Input{
		Text:  "Lustre en cristal, H: 90 × Ø 60 cm",
		Sets:  []lot.RawDimensionSet{{H: lot.Dim(90), Diameter: lot.Dim(60), Notation: lot.NotationHeightDiameter}},
		Count: one(1),
		Class: lot.ClassThreeD,
	})
	if !hasFlag(out, lot.FlagComplexObject) {
		t.Fatalf("expected complexity note, got %v", out.Flags)
	}
	if lot.FlagComplexObject.ReviewRequired() {
		t.Error("complexity note must stay informational")
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := newTestResolver(t)
	in := Input{
		Text: "Tableau, 40 x 30 cm, 55 x 45 cm",
		Sets: []lot.RawDimensionSet{
			{H: lot.Dim(40), L: lot.Dim(30), Notation: lot.NotationPair},
			{H: lot.Dim(55), L: lot.Dim(45), Notation: lot.NotationPair},
		},
		Count: one(1),
		Class: lot.ClassTwoD,
	}
	a := r.Resolve(in)
	b := r.Resolve(in)
	if len(a.Items) != len(b.Items) || len(a.Flags) != len(b.Flags) || len(a.Log) != len(b.Log) {
		t.Fatalf("resolve not deterministic: %+v vs %+v", a, b)
	}
}
