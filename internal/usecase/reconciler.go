package usecase

import (
	"go.uber.org/zap"

	"github.com/traysync/backend/internal/domain"
)

// ReconcilerConfig holds configuration for snapshot reconciliation.
type ReconcilerConfig struct {
	// DisableNameFallback turns off the divergent-SKU heuristic, so
	// products without a key match are always classified Missing. The
	// heuristic is conservative but has no ground truth, so it stays
	// overridable rather than hard-coded.
	DisableNameFallback bool
	Logger              *zap.Logger
}

// ReconcileResult partitions the source catalog against the target.
// Slice order follows snapshot iteration order and is unspecified;
// callers may rely on membership only.
type ReconcileResult struct {
	Exact     []domain.MatchResult
	Divergent []domain.MatchResult
	Missing   []domain.MatchResult
}

// Candidates returns the products the sync executor should act on:
// everything missing from the target plus every divergent match.
func (r *ReconcileResult) Candidates() []domain.MatchResult {
	out := make([]domain.MatchResult, 0, len(r.Missing)+len(r.Divergent))
	out = append(out, r.Missing...)
	out = append(out, r.Divergent...)
	return out
}

// Reconciler classifies each source product against a target snapshot.
// Matching is deliberately conservative: a wrong "same product" call is
// worse than leaving a genuine duplicate for manual review, so the name
// fallback fires only after SKU matching fails and only against the
// first target product seen under a given name key.
type Reconciler struct {
	cfg ReconcilerConfig
	log *zap.Logger
}

// NewReconciler creates a reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{cfg: cfg, log: log}
}

// Reconcile classifies every source product as exact, divergent or
// missing. Products present only in the target are inert to this
// pipeline: the system only ever creates or updates in the target.
func (r *Reconciler) Reconcile(source, target *domain.CatalogSnapshot) *ReconcileResult {
	result := &ReconcileResult{}

	// Secondary index of the target by name key, first-seen wins.
	type nameEntry struct {
		key     string
		product domain.ProductSummary
	}
	nameIndex := make(map[string]nameEntry)
	if !r.cfg.DisableNameFallback {
		for key, product := range target.Products() {
			nk := NameKey(product.Name)
			if nk == "" {
				continue
			}
			if _, seen := nameIndex[nk]; !seen {
				nameIndex[nk] = nameEntry{key: key, product: product}
			}
		}
	}

	for sourceKey, product := range source.Products() {
		if _, ok := target.Lookup(sourceKey); ok {
			result.Exact = append(result.Exact, domain.MatchResult{
				Kind:      domain.MatchExact,
				SourceKey: sourceKey,
				Product:   product,
			})
			continue
		}

		if !r.cfg.DisableNameFallback {
			if entry, ok := nameIndex[NameKey(product.Name)]; ok {
				// Only a divergence when the target row itself carries a
				// real SKU; an unkeyable target row is not a match.
				targetKey := SKUKey(entry.product.SKU)
				if targetKey != "" {
					matched := entry.product
					result.Divergent = append(result.Divergent, domain.MatchResult{
						Kind:      domain.MatchDivergent,
						SourceKey: sourceKey,
						TargetKey: targetKey,
						Product:   product,
						Target:    &matched,
					})
					r.log.Debug("divergent SKU",
						zap.String("name", product.Name),
						zap.String("source_key", sourceKey),
						zap.String("target_key", targetKey))
					continue
				}
			}
		}

		result.Missing = append(result.Missing, domain.MatchResult{
			Kind:      domain.MatchMissing,
			SourceKey: sourceKey,
			Product:   product,
		})
	}

	r.log.Info("reconciliation finished",
		zap.Int("source_keys", source.Len()),
		zap.Int("target_keys", target.Len()),
		zap.Int("exact", len(result.Exact)),
		zap.Int("divergent", len(result.Divergent)),
		zap.Int("missing", len(result.Missing)))
	return result
}
