package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/traysync/backend/internal/domain"
)

// Collector defaults
const (
	defaultPageSize           = 25
	defaultMaxPages           = 2000
	defaultFingerprintTimeout = 15 * time.Second
	defaultRetryBudget        = 2
)

// CollectorConfig holds configuration for one collection pass.
type CollectorConfig struct {
	// StoreLabel identifies the store in audit entries (e.g. "SOURCE").
	StoreLabel string
	// PageSize is the expected number of rows per listing page; a page
	// with fewer rows is treated as the final partial page.
	PageSize int
	// PageLimit caps the number of pages visited. 0 means no cap.
	PageLimit int
	// MaxPages is the hard safety ceiling against a misbehaving pager.
	MaxPages int
	// ClickPagination selects click-based "next" with a fingerprint
	// convergence wait instead of deep-link navigation per page.
	ClickPagination bool
	// FingerprintTimeout bounds each convergence wait after a click.
	FingerprintTimeout time.Duration
	// RetryBudget is the number of consecutive failed pages tolerated
	// before the pass terminates.
	RetryBudget int
	Logger      *zap.Logger
}

// Collector walks a store's paginated product listing to exhaustion,
// building a catalog snapshot and its audit. One collector drives one
// store's listing; the snapshot it returns is read-only thereafter.
type Collector struct {
	driver domain.PageDriver
	cfg    CollectorConfig
	log    *zap.Logger
}

// NewCollector creates a collector for the given driver and configuration.
func NewCollector(driver domain.PageDriver, cfg CollectorConfig) *Collector {
	if cfg.StoreLabel == "" {
		cfg.StoreLabel = "STORE"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.FingerprintTimeout <= 0 {
		cfg.FingerprintTimeout = defaultFingerprintTimeout
	}
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = defaultRetryBudget
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{driver: driver, cfg: cfg, log: log.With(zap.String("store", cfg.StoreLabel))}
}

// Collect walks the listing until a termination condition fires and
// returns the snapshot. Per-page failures are recorded as anomalies and
// never abort the pass; the audit's Termination field reports why the
// pass stopped, so Collect has no error to return.
func (c *Collector) Collect(ctx context.Context) *domain.CatalogSnapshot {
	snap := domain.NewCatalogSnapshot(c.cfg.StoreLabel)
	pageNum := 1
	failedPages := 0

	for {
		if ctx.Err() != nil {
			snap.Audit.Termination = domain.TerminationStopped
			break
		}

		listing, err := c.driver.FetchListingPage(ctx, pageNum)
		snap.Audit.PagesVisited = pageNum

		if err != nil {
			failedPages++
			c.recordAnomaly(snap, domain.Anomaly{
				StoreLabel: c.cfg.StoreLabel,
				Type:       domain.AnomalyCollectionError,
				Page:       pageNum,
				Detail:     fmt.Sprintf("page yielded no rows: %v", err),
			})
			c.log.Warn("listing page failed", zap.Int("page", pageNum), zap.Error(err))
			if failedPages > c.cfg.RetryBudget {
				snap.Audit.Termination = domain.TerminationError
				break
			}
			// Move on to the next page; the anomaly stays on record.
			if c.cfg.ClickPagination {
				reason, advanced := c.clickNext(ctx, snap, pageNum)
				if !advanced {
					snap.Audit.Termination = reason
					break
				}
			}
			pageNum++
			continue
		}
		failedPages = 0

		snap.Audit.RowsRead += len(listing.Rows)
		for _, row := range listing.Rows {
			c.ingestRow(snap, row, pageNum)
		}
		c.log.Debug("listing page collected",
			zap.Int("page", pageNum),
			zap.Int("rows", len(listing.Rows)),
			zap.Int("keys", snap.Len()))

		if len(listing.Rows) == 0 {
			snap.Audit.Termination = domain.TerminationEmptyPage
			break
		}
		if len(listing.Rows) < c.cfg.PageSize {
			snap.Audit.Termination = domain.TerminationPartialPage
			break
		}
		if !listing.HasNext {
			snap.Audit.Termination = domain.TerminationNextUnavailable
			break
		}
		if c.cfg.PageLimit > 0 && pageNum >= c.cfg.PageLimit {
			snap.Audit.Termination = domain.TerminationPageLimit
			break
		}
		if pageNum >= c.cfg.MaxPages {
			snap.Audit.Termination = domain.TerminationPageCeiling
			break
		}

		if c.cfg.ClickPagination {
			reason, advanced := c.clickNext(ctx, snap, pageNum)
			if !advanced {
				snap.Audit.Termination = reason
				break
			}
		}
		pageNum++
	}

	c.log.Info("collection finished",
		zap.Int("pages", snap.Audit.PagesVisited),
		zap.Int("rows_read", snap.Audit.RowsRead),
		zap.Int("keys", snap.Len()),
		zap.Int("without_key", snap.Audit.RowsWithoutKey),
		zap.Int("duplicates", snap.Audit.DuplicateKeyCount),
		zap.String("termination", string(snap.Audit.Termination)))
	return snap
}

// ingestRow keys a raw row and inserts it into the snapshot. Keying
// order: merchant SKU, then platform internal code, then normalized
// name. Rows keyed by name, and rows with no key at all, are recorded
// as NoKey anomalies; the latter are excluded entirely and counted in
// RowsWithoutKey rather than silently treated as collected.
func (c *Collector) ingestRow(snap *domain.CatalogSnapshot, row domain.RawRow, pageNum int) {
	key := SKUKey(row.SKU)
	if key == "" {
		key = SKUKey(row.Code)
	}
	if key == "" {
		key = NameKey(row.Name)
		detail := "row has no SKU or internal code; keyed by normalized name"
		if key == "" {
			snap.Audit.RowsWithoutKey++
			detail = "row has no SKU, code or usable name; excluded from matching"
		}
		c.recordAnomaly(snap, domain.Anomaly{
			StoreLabel: c.cfg.StoreLabel,
			Type:       domain.AnomalyNoKey,
			Page:       pageNum,
			SKU:        strings.TrimSpace(row.SKU),
			Name:       strings.TrimSpace(row.Name),
			Code:       strings.TrimSpace(row.Code),
			Detail:     detail,
		})
		if key == "" {
			return
		}
	}

	summary := domain.ProductSummary{
		SKU:           strings.TrimSpace(row.SKU),
		InternalCode:  strings.TrimSpace(row.Code),
		Name:          strings.TrimSpace(row.Name),
		EditReference: strings.TrimSpace(row.EditRef),
	}
	if !snap.Insert(key, summary) {
		snap.Audit.DuplicateKeyCount++
		c.recordAnomaly(snap, domain.Anomaly{
			StoreLabel: c.cfg.StoreLabel,
			Type:       domain.AnomalyDuplicateKey,
			Page:       pageNum,
			SKU:        summary.SKU,
			Name:       summary.Name,
			Code:       summary.InternalCode,
			Detail:     "duplicate key on listing; first occurrence kept",
		})
	}
}

// clickNext advances the listing via the driver's click-based "next"
// action and waits for the table to converge. On a convergence timeout
// it re-checks whether the next action became disabled, which is a true
// end of pagination, before declaring an error.
func (c *Collector) clickNext(ctx context.Context, snap *domain.CatalogSnapshot, pageNum int) (domain.TerminationReason, bool) {
	previous, err := c.driver.Fingerprint(ctx)
	if err != nil {
		c.recordClickAnomaly(snap, pageNum, fmt.Sprintf("fingerprint read failed: %v", err))
		return domain.TerminationError, false
	}

	clicked, err := c.driver.AdvanceListing(ctx)
	if err != nil {
		c.recordClickAnomaly(snap, pageNum, fmt.Sprintf("next action failed: %v", err))
		return domain.TerminationError, false
	}
	if !clicked {
		return domain.TerminationNextUnavailable, false
	}

	changed, err := c.driver.WaitForFingerprintChange(ctx, previous, c.cfg.FingerprintTimeout)
	if err != nil {
		c.recordClickAnomaly(snap, pageNum, fmt.Sprintf("convergence wait failed: %v", err))
		return domain.TerminationError, false
	}
	if changed {
		return "", true
	}
	if ctx.Err() != nil {
		return domain.TerminationStopped, false
	}

	// Timed out. If the next action is now disabled the listing really
	// ended; otherwise give the table one more bounded chance.
	clicked, err = c.driver.AdvanceListing(ctx)
	if err != nil || !clicked {
		return domain.TerminationNextUnavailable, false
	}
	changed, err = c.driver.WaitForFingerprintChange(ctx, previous, c.cfg.FingerprintTimeout)
	if err == nil && changed {
		return "", true
	}
	if ctx.Err() != nil {
		return domain.TerminationStopped, false
	}
	c.recordClickAnomaly(snap, pageNum, "table did not refresh after next action")
	return domain.TerminationError, false
}

func (c *Collector) recordClickAnomaly(snap *domain.CatalogSnapshot, pageNum int, detail string) {
	c.log.Warn("pagination failed", zap.Int("page", pageNum), zap.String("detail", detail))
	c.recordAnomaly(snap, domain.Anomaly{
		StoreLabel: c.cfg.StoreLabel,
		Type:       domain.AnomalyCollectionError,
		Page:       pageNum,
		Detail:     detail,
	})
}

func (c *Collector) recordAnomaly(snap *domain.CatalogSnapshot, anomaly domain.Anomaly) {
	snap.Audit.Anomalies = append(snap.Audit.Anomalies, anomaly)
}
