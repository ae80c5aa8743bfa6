package usecase

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/receiptly/backend/internal/catalog"
	"github.com/receiptly/backend/internal/domain"
)

// nearCertain caps boosted scores for every automatic path except the
// exact tier, so that confidence 1.0 stays reserved for overrides and
// exact matches.
const nearCertain = 0.99

// lineState is the per-line reconciliation state. Each transition returns
// a definitive decision; once a terminal path is taken the remaining
// states are structurally unreachable.
type lineState int

const (
	stateStart lineState = iota
	stateOverrideCheck
	stateCandidateSearch
	stateScoring
	stateUoMResolution
	stateDone
)

// EngineConfig holds the acceptance thresholds and batch parallelism.
type EngineConfig struct {
	// MinConfidence is the boosted score a candidate needs to be accepted.
	MinConfidence float64
	// HighConfidence is the score below which a match still needs review.
	HighConfidence float64
	// Workers bounds batch parallelism; zero means GOMAXPROCS.
	Workers int
}

// DefaultEngineConfig returns the tuned production thresholds.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{MinConfidence: 0.6, HighConfidence: 0.8}
}

// ReconciliationEngine is the public entry point: it reconciles receipt
// line items against the catalog snapshot, consulting the override store
// before any automatic logic. Matching a line is a pure function of the
// line, the immutable snapshot, and the immutable override view, so
// lines are processed in parallel with no coordination.
type ReconciliationEngine struct {
	snapshot  *catalog.Snapshot
	overrides domain.OverrideRepository
	cache     domain.ResultCache
	matcher   *CandidateMatcher
	scorer    *SignalScorer
	resolver  *UoMResolver
	config    EngineConfig
	log       *logrus.Logger
}

// NewReconciliationEngine wires the engine. A nil snapshot is refused:
// the engine never processes a line without a loaded catalog.
func NewReconciliationEngine(
	snapshot *catalog.Snapshot,
	overrides domain.OverrideRepository,
	cache domain.ResultCache,
	matcher *CandidateMatcher,
	scorer *SignalScorer,
	resolver *UoMResolver,
	config EngineConfig,
	log *logrus.Logger,
) (*ReconciliationEngine, error) {
	if snapshot == nil {
		return nil, domain.ErrSnapshotMissing
	}
	defaults := DefaultEngineConfig()
	if config.MinConfidence <= 0 {
		config.MinConfidence = defaults.MinConfidence
	}
	if config.HighConfidence <= 0 {
		config.HighConfidence = defaults.HighConfidence
	}
	if log == nil {
		log = logrus.New()
	}
	return &ReconciliationEngine{
		snapshot:  snapshot,
		overrides: overrides,
		cache:     cache,
		matcher:   matcher,
		scorer:    scorer,
		resolver:  resolver,
		config:    config,
		log:       log,
	}, nil
}

// ReconcileBatch matches every line and returns results in the original
// line order along with batch statistics. Per-line failures are recorded
// on that line's result and never abort the rest of the batch.
func (e *ReconciliationEngine) ReconcileBatch(ctx context.Context, lines []domain.ReceiptLineItem) ([]domain.MatchResult, domain.BatchSummary, error) {
	results := make([]domain.MatchResult, len(lines))

	workers := e.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(lines) {
		workers = len(lines)
	}
	if workers < 1 {
		workers = 1
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = e.ReconcileLine(ctx, lines[i])
				results[i].LineIndex = i
			}
		}()
	}

feed:
	for i := range lines {
		select {
		case <-ctx.Done():
			break feed
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, domain.BatchSummary{}, err
	}

	// Workers fill slots by index already; the explicit re-sort keeps the
	// guarantee even if scheduling ever changes.
	sort.SliceStable(results, func(i, j int) bool { return results[i].LineIndex < results[j].LineIndex })

	return results, summarize(results), nil
}

// ReconcileLine runs one line through the state machine:
// START -> OVERRIDE_CHECK -> (MATCHED_BY_OVERRIDE | CANDIDATE_SEARCH) ->
// SCORING -> (ACCEPTED | REJECTED) -> UOM_RESOLUTION -> DONE.
func (e *ReconciliationEngine) ReconcileLine(ctx context.Context, line domain.ReceiptLineItem) domain.MatchResult {
	if cached := e.cachedResult(ctx, line); cached != nil {
		return *cached
	}

	var (
		result    domain.MatchResult
		candidate *Candidate
	)

	state := stateStart
	for state != stateDone {
		switch state {
		case stateStart:
			if strings.TrimSpace(line.RawDescription) == "" {
				result = domain.MatchResult{MatchMethod: domain.MethodNone, NeedsReview: true}
				state = stateDone
				continue
			}
			state = stateOverrideCheck

		case stateOverrideCheck:
			productID, hit := e.lookupOverride(ctx, line)
			if hit {
				if p, ok := e.snapshot.ProductByID(productID); ok {
					candidate = &Candidate{Product: p, BaseScore: 1.0, Method: domain.MethodOverride}
					result.ProductID = p.ProductID
					result.Confidence = 1.0
					result.MatchMethod = domain.MethodOverride
					state = stateUoMResolution
					continue
				}
				// Override points at a product the snapshot no longer has;
				// fall through to automatic matching.
				e.log.WithFields(logrus.Fields{
					"receiptId": line.ReceiptID,
					"productId": productID,
				}).Warn("override references unknown product")
			}
			state = stateCandidateSearch

		case stateCandidateSearch:
			candidates := e.matcher.FindCandidates(line.RawDescription, line.CategoryHint)
			if len(candidates) == 0 {
				result = rejected()
				state = stateDone
				continue
			}
			candidate = &candidates[0]
			state = stateScoring

		case stateScoring:
			score := e.scorer.Score(*candidate, line)
			if candidate.Method != domain.MethodExact && score > nearCertain {
				score = nearCertain
			}
			if score < e.config.MinConfidence {
				e.log.WithFields(logrus.Fields{
					"description": line.RawDescription,
					"product":     candidate.Product.CanonicalName,
					"score":       fmt.Sprintf("%.2f", score),
				}).Debug("best candidate below acceptance threshold")
				result = rejected()
				state = stateDone
				continue
			}
			result.ProductID = candidate.Product.ProductID
			result.Confidence = score
			result.MatchMethod = candidate.Method
			state = stateUoMResolution

		case stateUoMResolution:
			// Runs even for low-confidence matches so a reviewer sees a
			// complete quantity and unit to correct, not a blank line.
			res := e.resolver.Resolve(line, candidate.Product)
			result.UoMID = res.UoMID
			result.ConvertedQuantity = res.Quantity
			result.UoMMethod = res.Method
			if res.Method == domain.UoMUnresolved {
				result.NeedsReview = true
			}
			state = stateDone
		}
	}

	if result.Confidence < e.config.HighConfidence {
		result.NeedsReview = true
	}

	e.storeResult(ctx, line, result)
	return result
}

func rejected() domain.MatchResult {
	return domain.MatchResult{MatchMethod: domain.MethodNone, NeedsReview: true}
}

func (e *ReconciliationEngine) lookupOverride(ctx context.Context, line domain.ReceiptLineItem) (int64, bool) {
	if e.overrides == nil {
		return 0, false
	}
	productID, hit, err := e.overrides.Lookup(ctx, line.ReceiptID, line.RawDescription)
	if err != nil {
		e.log.WithError(err).WithField("receiptId", line.ReceiptID).Warn("override lookup failed")
		return 0, false
	}
	return productID, hit
}

// cacheKey fingerprints every input matching depends on. Price is part
// of the key because it feeds both scoring and UoM inference; the
// category hint because it changes tier selection and boosts.
func cacheKey(line domain.ReceiptLineItem) string {
	return fmt.Sprintf("match:%s:%s:%s:%s:%s:%g:%g:%g",
		line.ReceiptID, strings.ToLower(line.RawDescription), strings.ToLower(line.PurchaseUoMText),
		strings.ToLower(line.VendorName), strings.ToLower(line.CategoryHint),
		line.Quantity, line.UnitPrice, line.UnitSize)
}

func (e *ReconciliationEngine) cachedResult(ctx context.Context, line domain.ReceiptLineItem) *domain.MatchResult {
	if e.cache == nil {
		return nil
	}
	result, err := e.cache.Get(ctx, cacheKey(line))
	if err != nil {
		return nil
	}
	return result
}

func (e *ReconciliationEngine) storeResult(ctx context.Context, line domain.ReceiptLineItem, result domain.MatchResult) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, cacheKey(line), &result); err != nil {
		e.log.WithError(err).Debug("result cache write failed")
	}
}

func summarize(results []domain.MatchResult) domain.BatchSummary {
	summary := domain.BatchSummary{TotalLines: len(results)}
	for i := range results {
		r := &results[i]
		switch {
		case r.MatchMethod == domain.MethodOverride:
			summary.ByOverride++
			summary.Matched++
		case r.Matched():
			summary.Matched++
		default:
			summary.Rejected++
		}
		if r.NeedsReview {
			summary.NeedsReview++
		}
		switch r.UoMMethod {
		case "", domain.UoMUnresolved:
			if r.Matched() {
				summary.UoMFallbacks++
			}
		default:
			summary.UoMResolved++
		}
	}
	return summary
}
