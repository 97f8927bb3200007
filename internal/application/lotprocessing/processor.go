// Package lotprocessing composes the extraction, counting, classification and
// resolution stages into the per-lot pipeline and exposes the batch service
// that runs it at scale.
package lotprocessing

import (
	"strings"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/count_inferrer"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/dimension_extractor"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/dimension_resolver"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/material_classifier"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/rules"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// Processor runs the four pipeline stages for a single lot.  It holds no
// per-lot state and is safe for concurrent use; the batch service shares one
// Processor across its workers.
type Processor struct {
	logger     logging.Logger
	extractor  *dimension_extractor.Extractor
	inferrer   *count_inferrer.Inferrer
	classifier *material_classifier.Classifier
	resolver   *dimension_resolver.Resolver
}

// NewProcessor wires the stages over a shared rule-set.  The rule-set is
// normalized here so callers can pass configuration verbatim; a nil policy
// selects dimension_resolver.LargestBoundingMeasure.
func NewProcessor(rs rules.RuleSet, policy dimension_resolver.SelectionPolicy, logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rs = rs.Normalize()
	return &Processor{
		logger:     logger.Named("lotprocessing"),
		extractor:  dimension_extractor.NewExtractor(),
		inferrer:   count_inferrer.NewInferrer(rs),
		classifier: material_classifier.NewClassifier(rs),
		resolver:   dimension_resolver.NewResolver(rs, policy),
	}
}

// Process converts one free-text lot description into structured shipping
// dimensions.  It fails only on empty input; every ambiguity in non-empty text
// is absorbed into flags and the conversion log instead of an error, so a
// batch is never aborted by a strange description.
func (p *Processor) Process(desc lot.LotDescription) (lot.LotResult, error) {
	if strings.TrimSpace(desc.Text) == "" {
		return lot.LotResult{}, errors.New(errors.CodeEmptyDescription,
			"lot description is empty").WithDetail("lot_id: " + desc.LotID)
	}

	res := lot.LotResult{Lot: desc}

	sets := p.extractor.Extract(desc.Text)
	res.RawSets = sets

	counted := p.inferrer.Infer(desc.Text)
	res.Count = counted.Count
	res.Flags.AddAll(counted.Flags...)
	res.Log.Extend(counted.Log...)

	classified := p.classifier.Classify(desc.Text)
	res.Classification = classified.Class
	res.ClassificationRule = classified.Rule
	res.Material = p.classifier.ExtractMaterial(desc.Text)
	res.Flags.AddAll(classified.Flags...)
	res.Log.Extend(classified.Log...)

	resolved := p.resolver.Resolve(dimension_resolver.Input{
		Text:  desc.Text,
		Sets:  sets,
		Count: res.Count,
		Class: res.Classification,
	})
	res.Items = resolved.Items
	res.Flags.AddAll(resolved.Flags...)
	res.Log.Extend(resolved.Log...)

	res.ManualReviewRequired = reviewRequired(res)

	p.logger.Debug("lot processed",
		logging.String("lot_id", desc.LotID),
		logging.String("classification", string(res.Classification)),
		logging.Int("items", len(res.Items)),
		logging.Int("flags", res.Flags.Len()),
		logging.Bool("manual_review", res.ManualReviewRequired))

	return res, nil
}

// reviewRequired derives the manual-review verdict: an indeterminate
// classification, any review-severity flag, or an item that ends up with no
// usable H/L/D at all.
func reviewRequired(res lot.LotResult) bool {
	if res.Classification == lot.ClassIndeterminate {
		return true
	}
	if res.Flags.AnyReviewRequired() {
		return true
	}
	for _, item := range res.Items {
		if item.Unset() {
			return true
		}
	}
	return false
}
