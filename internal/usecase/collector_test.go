package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/traysync/backend/internal/domain"
)

// fakeDriver serves scripted listing pages and pagination behavior.
type fakeDriver struct {
	pages      []*domain.ListingPage
	pageErrs   map[int]error
	fetchCalls int

	// click pagination script
	advanceResults []bool
	advanceErr     error
	advanceCalls   int
	waitResults    []bool
	waitCalls      int
	waitHook       func()
}

func (f *fakeDriver) FetchListingPage(_ context.Context, page int) (*domain.ListingPage, error) {
	f.fetchCalls++
	if err, ok := f.pageErrs[page]; ok {
		return nil, err
	}
	if page < 1 || page > len(f.pages) {
		return &domain.ListingPage{}, nil
	}
	return f.pages[page-1], nil
}

func (f *fakeDriver) AdvanceListing(context.Context) (bool, error) {
	f.advanceCalls++
	if f.advanceErr != nil {
		return false, f.advanceErr
	}
	if len(f.advanceResults) == 0 {
		return true, nil
	}
	result := f.advanceResults[0]
	if len(f.advanceResults) > 1 {
		f.advanceResults = f.advanceResults[1:]
	}
	return result, nil
}

func (f *fakeDriver) Fingerprint(context.Context) (string, error) {
	return fmt.Sprintf("page-%d", f.fetchCalls), nil
}

func (f *fakeDriver) WaitForFingerprintChange(context.Context, string, time.Duration) (bool, error) {
	f.waitCalls++
	if f.waitHook != nil {
		f.waitHook()
	}
	if len(f.waitResults) == 0 {
		return true, nil
	}
	result := f.waitResults[0]
	if len(f.waitResults) > 1 {
		f.waitResults = f.waitResults[1:]
	}
	return result, nil
}

func (f *fakeDriver) FetchProductDetail(context.Context, string) (*domain.RawProductRecord, error) {
	return nil, domain.ErrDetailUnavailable
}

func (f *fakeDriver) CreateProduct(context.Context, *domain.ProductPayload) (bool, string, error) {
	return false, "", errors.New("not implemented")
}

func (f *fakeDriver) UpdateProduct(context.Context, string, *domain.ProductPayload) (bool, string, error) {
	return false, "", errors.New("not implemented")
}

// makePage builds a full listing page of size rows, numbered from start.
func makePage(start, size int, hasNext bool) *domain.ListingPage {
	rows := make([]domain.RawRow, size)
	for i := range rows {
		n := start + i
		rows[i] = domain.RawRow{
			SKU:     fmt.Sprintf("SKU-%04d", n),
			Code:    fmt.Sprintf("%d", 1000+n),
			Name:    fmt.Sprintf("Produto %d", n),
			EditRef: fmt.Sprintf("products/edit/%d", 1000+n),
		}
	}
	return &domain.ListingPage{Rows: rows, HasNext: hasNext}
}

func TestCollectMultiPage(t *testing.T) {
	driver := &fakeDriver{pages: []*domain.ListingPage{
		makePage(1, 5, true),
		makePage(6, 5, true),
		makePage(11, 3, false),
	}}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 5})

	snap := c.Collect(context.Background())

	if snap.Audit.RowsRead != 13 {
		t.Errorf("RowsRead = %d, want 13", snap.Audit.RowsRead)
	}
	if snap.Len() != 13 {
		t.Errorf("Len = %d, want 13", snap.Len())
	}
	if snap.Audit.PagesVisited != 3 {
		t.Errorf("PagesVisited = %d, want 3", snap.Audit.PagesVisited)
	}
	if snap.Audit.Termination != domain.TerminationPartialPage {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationPartialPage)
	}
	if len(snap.Audit.Anomalies) != 0 {
		t.Errorf("Anomalies = %d, want 0", len(snap.Audit.Anomalies))
	}
}

func TestCollectEmptyFirstPage(t *testing.T) {
	driver := &fakeDriver{pages: []*domain.ListingPage{{}}}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 5})

	snap := c.Collect(context.Background())

	if snap.Len() != 0 {
		t.Errorf("Len = %d, want 0", snap.Len())
	}
	if snap.Audit.Termination != domain.TerminationEmptyPage {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationEmptyPage)
	}
}

func TestCollectStopsAtNextUnavailable(t *testing.T) {
	// Full last page with no next action: the full-page size must not
	// keep the walk going.
	driver := &fakeDriver{pages: []*domain.ListingPage{makePage(1, 5, false)}}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 5})

	snap := c.Collect(context.Background())

	if snap.Audit.Termination != domain.TerminationNextUnavailable {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationNextUnavailable)
	}
	if snap.Audit.PagesVisited != 1 {
		t.Errorf("PagesVisited = %d, want 1", snap.Audit.PagesVisited)
	}
}

func TestCollectHonorsPageLimit(t *testing.T) {
	driver := &fakeDriver{pages: []*domain.ListingPage{
		makePage(1, 5, true),
		makePage(6, 5, true),
		makePage(11, 5, true),
	}}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 5, PageLimit: 2})

	snap := c.Collect(context.Background())

	if snap.Audit.PagesVisited != 2 {
		t.Errorf("PagesVisited = %d, want 2", snap.Audit.PagesVisited)
	}
	if snap.Audit.RowsRead != 10 {
		t.Errorf("RowsRead = %d, want 10", snap.Audit.RowsRead)
	}
	if snap.Audit.Termination != domain.TerminationPageLimit {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationPageLimit)
	}
}

func TestCollectHonorsPageCeiling(t *testing.T) {
	pages := make([]*domain.ListingPage, 5)
	for i := range pages {
		pages[i] = makePage(i*5+1, 5, true)
	}
	driver := &fakeDriver{pages: pages}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 5, MaxPages: 3})

	snap := c.Collect(context.Background())

	if snap.Audit.PagesVisited != 3 {
		t.Errorf("PagesVisited = %d, want 3", snap.Audit.PagesVisited)
	}
	if snap.Audit.Termination != domain.TerminationPageCeiling {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationPageCeiling)
	}
}

func TestCollectDuplicateKeysKeepFirst(t *testing.T) {
	driver := &fakeDriver{pages: []*domain.ListingPage{{
		Rows: []domain.RawRow{
			{SKU: "ref-001", Name: "Primeiro"},
			{SKU: "REF-001", Name: "Segundo"},
			{SKU: "REF-002", Name: "Outro"},
		},
		HasNext: false,
	}}}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 3})

	snap := c.Collect(context.Background())

	if snap.Len() != 2 {
		t.Errorf("Len = %d, want 2", snap.Len())
	}
	if snap.Audit.DuplicateKeyCount != 1 {
		t.Errorf("DuplicateKeyCount = %d, want 1", snap.Audit.DuplicateKeyCount)
	}
	product, ok := snap.Lookup("REF-001")
	if !ok {
		t.Fatal("expected REF-001 in snapshot")
	}
	if product.Name != "Primeiro" {
		t.Errorf("kept product name = %q, want first occurrence", product.Name)
	}
	var dupAnomalies int
	for _, a := range snap.Audit.Anomalies {
		if a.Type == domain.AnomalyDuplicateKey {
			dupAnomalies++
		}
	}
	if dupAnomalies != 1 {
		t.Errorf("duplicate anomalies = %d, want 1", dupAnomalies)
	}
}

func TestCollectKeyFallback(t *testing.T) {
	driver := &fakeDriver{pages: []*domain.ListingPage{{
		Rows: []domain.RawRow{
			{SKU: "", Code: "1234", Name: "Com Codigo"},
			{SKU: "", Code: "", Name: "Somente Nome Longo"},
			{SKU: "", Code: "", Name: ""},
		},
		HasNext: false,
	}}}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 5})

	snap := c.Collect(context.Background())

	if _, ok := snap.Lookup("1234"); !ok {
		t.Error("expected row keyed by internal code")
	}
	if _, ok := snap.Lookup(NameKey("Somente Nome Longo")); !ok {
		t.Error("expected row keyed by normalized name")
	}
	if snap.Len() != 2 {
		t.Errorf("Len = %d, want 2", snap.Len())
	}
	// Only the fully unkeyable row counts as excluded.
	if snap.Audit.RowsWithoutKey != 1 {
		t.Errorf("RowsWithoutKey = %d, want 1", snap.Audit.RowsWithoutKey)
	}
	var noKey int
	for _, a := range snap.Audit.Anomalies {
		if a.Type == domain.AnomalyNoKey {
			noKey++
		}
	}
	// Both the name-keyed row and the excluded row are flagged.
	if noKey != 2 {
		t.Errorf("NoKey anomalies = %d, want 2", noKey)
	}
}

func TestCollectPageErrorWithinBudget(t *testing.T) {
	driver := &fakeDriver{
		pages: []*domain.ListingPage{
			makePage(1, 5, true),
			nil, // replaced by pageErrs
			makePage(11, 3, false),
		},
		pageErrs: map[int]error{2: errors.New("table did not load")},
	}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 5, RetryBudget: 2})

	snap := c.Collect(context.Background())

	if snap.Audit.Termination != domain.TerminationPartialPage {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationPartialPage)
	}
	if snap.Audit.RowsRead != 8 {
		t.Errorf("RowsRead = %d, want 8", snap.Audit.RowsRead)
	}
	var collectionErrs int
	for _, a := range snap.Audit.Anomalies {
		if a.Type == domain.AnomalyCollectionError {
			collectionErrs++
		}
	}
	if collectionErrs != 1 {
		t.Errorf("CollectionError anomalies = %d, want 1", collectionErrs)
	}
}

func TestCollectPageErrorsExhaustBudget(t *testing.T) {
	driver := &fakeDriver{
		pages: []*domain.ListingPage{makePage(1, 5, true)},
		pageErrs: map[int]error{
			2: errors.New("boom"),
			3: errors.New("boom"),
			4: errors.New("boom"),
		},
	}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 5, RetryBudget: 2})

	snap := c.Collect(context.Background())

	if snap.Audit.Termination != domain.TerminationError {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationError)
	}
	// The first page's rows survive even though the pass ended in error.
	if snap.Len() != 5 {
		t.Errorf("Len = %d, want 5", snap.Len())
	}
}

func TestCollectClickPaginationDisabledNext(t *testing.T) {
	// Fingerprint never converges and the re-probe finds the next action
	// disabled: a true end of pagination, not an error.
	driver := &fakeDriver{
		pages: []*domain.ListingPage{
			makePage(1, 5, true),
			makePage(6, 5, true),
		},
		advanceResults: []bool{true, false},
		waitResults:    []bool{false},
	}
	c := NewCollector(driver, CollectorConfig{
		StoreLabel:         "A",
		PageSize:           5,
		ClickPagination:    true,
		FingerprintTimeout: 10 * time.Millisecond,
	})

	snap := c.Collect(context.Background())

	if snap.Audit.Termination != domain.TerminationNextUnavailable {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationNextUnavailable)
	}
	if snap.Audit.PagesVisited != 1 {
		t.Errorf("PagesVisited = %d, want 1", snap.Audit.PagesVisited)
	}
}

func TestCollectClickPaginationStalledTable(t *testing.T) {
	// Next stays enabled but the table never refreshes: terminate with
	// an error after the bounded second chance.
	driver := &fakeDriver{
		pages: []*domain.ListingPage{
			makePage(1, 5, true),
		},
		advanceResults: []bool{true},
		waitResults:    []bool{false},
	}
	c := NewCollector(driver, CollectorConfig{
		StoreLabel:         "A",
		PageSize:           5,
		ClickPagination:    true,
		FingerprintTimeout: 10 * time.Millisecond,
	})

	snap := c.Collect(context.Background())

	if snap.Audit.Termination != domain.TerminationError {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationError)
	}
	if driver.advanceCalls != 2 {
		t.Errorf("advanceCalls = %d, want 2 (click plus re-probe)", driver.advanceCalls)
	}
}

func TestCollectCancelledDuringConvergenceWait(t *testing.T) {
	// A shutdown signal arriving while the table is still converging is
	// an orderly stop, not a pagination failure.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver := &fakeDriver{
		pages:       []*domain.ListingPage{makePage(1, 5, true)},
		waitResults: []bool{false},
	}
	driver.waitHook = cancel
	c := NewCollector(driver, CollectorConfig{
		StoreLabel:         "A",
		PageSize:           5,
		ClickPagination:    true,
		FingerprintTimeout: 10 * time.Millisecond,
	})

	snap := c.Collect(ctx)

	if snap.Audit.Termination != domain.TerminationStopped {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationStopped)
	}
	if driver.advanceCalls != 1 {
		t.Errorf("advanceCalls = %d, want 1 (no re-probe after cancellation)", driver.advanceCalls)
	}
	if len(snap.Audit.Anomalies) != 0 {
		t.Errorf("Anomalies = %d, want 0", len(snap.Audit.Anomalies))
	}
}

func TestCollectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := &fakeDriver{pages: []*domain.ListingPage{makePage(1, 5, false)}}
	c := NewCollector(driver, CollectorConfig{StoreLabel: "A", PageSize: 5})

	snap := c.Collect(ctx)

	if snap.Audit.Termination != domain.TerminationStopped {
		t.Errorf("Termination = %q, want %q", snap.Audit.Termination, domain.TerminationStopped)
	}
	if driver.fetchCalls != 0 {
		t.Errorf("fetchCalls = %d, want 0", driver.fetchCalls)
	}
}
