package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/traysync/backend/internal/domain"
)

// defaultMutationInterval spaces live mutating calls far enough apart to
// stay under the platform's abuse-detection thresholds.
const defaultMutationInterval = 5 * time.Second

// SyncExecutorConfig holds configuration for a synchronization pass.
type SyncExecutorConfig struct {
	// DryRun computes every outcome but performs no mutating calls.
	DryRun bool
	// SyncLimit caps the number of candidates processed. 0 = unlimited.
	SyncLimit int
	// MutationInterval is the minimum spacing between live create/update
	// calls. This is a cooperative delay, not a concurrency primitive.
	MutationInterval time.Duration
	Logger           *zap.Logger
}

// SyncExecutor drives creation and update of missing or divergent
// products in the target store, one candidate at a time. Payload
// fetches go through the source page driver; mutations go through a
// ProductWriter (the target driver or the platform API client).
type SyncExecutor struct {
	source  domain.PageDriver
	writer  domain.ProductWriter
	limiter *rate.Limiter
	cfg     SyncExecutorConfig
	log     *zap.Logger
}

// NewSyncExecutor creates an executor over the given source driver and
// target writer.
func NewSyncExecutor(source domain.PageDriver, writer domain.ProductWriter, cfg SyncExecutorConfig) *SyncExecutor {
	if cfg.MutationInterval <= 0 {
		cfg.MutationInterval = defaultMutationInterval
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncExecutor{
		source:  source,
		writer:  writer,
		limiter: rate.NewLimiter(rate.Every(cfg.MutationInterval), 1),
		cfg:     cfg,
		log:     log,
	}
}

// Run processes the candidates in order, appending every attempt to the
// report. A failure on one product never aborts the remaining ones.
// Cancellation is honored between products; whatever was already
// synchronized stays committed and the partial result is returned.
func (e *SyncExecutor) Run(ctx context.Context, candidates []domain.MatchResult, report *RunReport) []domain.SyncOutcome {
	if e.cfg.SyncLimit > 0 && len(candidates) > e.cfg.SyncLimit {
		e.log.Info("sync limit applied",
			zap.Int("candidates", len(candidates)),
			zap.Int("limit", e.cfg.SyncLimit))
		candidates = candidates[:e.cfg.SyncLimit]
	}

	outcomes := make([]domain.SyncOutcome, 0, len(candidates))
	for i, candidate := range candidates {
		if ctx.Err() != nil {
			e.log.Warn("sync stopped early",
				zap.Int("processed", i),
				zap.Int("remaining", len(candidates)-i))
			break
		}

		outcome := e.syncOne(ctx, candidate)
		report.Append(outcome)
		outcomes = append(outcomes, outcome)

		e.log.Info("product processed",
			zap.Int("index", i+1),
			zap.Int("total", len(candidates)),
			zap.String("sku", outcome.SKU),
			zap.String("status", string(outcome.Status)),
			zap.String("reason", outcome.Reason))
	}
	return outcomes
}

// syncOne handles a single candidate end to end. A panic inside the
// driver surfaces as a Failed outcome rather than taking down the run.
func (e *SyncExecutor) syncOne(ctx context.Context, candidate domain.MatchResult) (outcome domain.SyncOutcome) {
	summary := candidate.Product
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error("sync attempt panicked",
				zap.String("sku", summary.SKU),
				zap.Any("panic", rec))
			outcome = failedOutcome(summary, fmt.Sprintf("panic: %v", rec))
		}
	}()

	record, err := e.source.FetchProductDetail(ctx, summary.EditReference)
	if err != nil {
		return failedOutcome(summary, fmt.Sprintf("%v: %v", domain.ErrDetailUnavailable, err))
	}

	payload := e.buildPayload(record, summary)

	if e.cfg.DryRun {
		return domain.SyncOutcome{
			Status:    domain.SyncSkipped,
			Reason:    "dry-run",
			SKU:       payload.SKU,
			Name:      payload.Name,
			SourceRef: summary.EditReference,
			Payload:   payload,
			Record:    record,
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return failedOutcome(summary, fmt.Sprintf("rate limiter: %v", err))
	}

	var (
		accepted bool
		message  string
		status   domain.SyncStatus
	)
	if candidate.Kind == domain.MatchDivergent && candidate.Target != nil {
		// Reuse the target's existing identity instead of creating a twin.
		identity := candidate.Target.EditReference
		if identity == "" {
			identity = candidate.Target.InternalCode
		}
		accepted, message, err = e.writer.UpdateProduct(ctx, identity, payload)
		status = domain.SyncUpdated
	} else {
		accepted, message, err = e.writer.CreateProduct(ctx, payload)
		status = domain.SyncCreated
	}

	if err != nil {
		return domain.SyncOutcome{
			Status:    domain.SyncFailed,
			Reason:    err.Error(),
			SKU:       payload.SKU,
			Name:      payload.Name,
			SourceRef: summary.EditReference,
			Payload:   payload,
			Record:    record,
		}
	}
	if !accepted {
		reason := message
		if reason == "" {
			reason = domain.ErrMutationRejected.Error()
		}
		return domain.SyncOutcome{
			Status:    domain.SyncFailed,
			Reason:    reason,
			SKU:       payload.SKU,
			Name:      payload.Name,
			SourceRef: summary.EditReference,
			Payload:   payload,
			Record:    record,
		}
	}

	return domain.SyncOutcome{
		Status:    status,
		Reason:    message,
		SKU:       payload.SKU,
		Name:      payload.Name,
		SourceRef: summary.EditReference,
		Payload:   payload,
		Record:    record,
	}
}

// buildPayload maps the extracted edit-view record into a create/update
// payload. When the edit view lacks an SKU the summary's listing SKU is
// used, so the payload is never keyless. Loose additional-info entries
// are validated here, once, at the boundary.
func (e *SyncExecutor) buildPayload(record *domain.RawProductRecord, summary domain.ProductSummary) *domain.ProductPayload {
	sku := record.SKU
	if sku == "" {
		sku = summary.SKU
	}
	if sku == "" {
		sku = summary.InternalCode
	}
	name := record.Name
	if name == "" {
		name = summary.Name
	}

	fields, errs := domain.ParseAdditionalInfoFields(record.AdditionalInfos)
	for _, parseErr := range errs {
		e.log.Warn("additional info entry dropped",
			zap.String("sku", sku),
			zap.Error(parseErr))
	}

	return &domain.ProductPayload{
		SKU:            sku,
		Name:           name,
		Description:    record.Description,
		AdditionalInfo: record.AdditionalInfo,
		Price:          record.Price,
		Stock:          record.Stock,
		Dimensions:     record.Dimensions,
		Category:       record.Category,
		ImageURLs:      record.ImageURLs,
		Fields:         fields,
		SourceRef:      summary.EditReference,
	}
}

func failedOutcome(summary domain.ProductSummary, reason string) domain.SyncOutcome {
	return domain.SyncOutcome{
		Status:    domain.SyncFailed,
		Reason:    reason,
		SKU:       summary.SKU,
		Name:      summary.Name,
		SourceRef: summary.EditReference,
	}
}
