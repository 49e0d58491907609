// Package browser implements the page driver contract on top of the
// Chrome DevTools Protocol via chromedp. It is the only package that
// knows the storefront's markup; everything above it branches on typed
// return values only.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/traysync/backend/internal/domain"
)

const (
	defaultNavigationTimeout = 25 * time.Second
	defaultStepDelay         = 300 * time.Millisecond
	fingerprintPollInterval  = 300 * time.Millisecond
)

// Config contains configuration for one store's driver session.
type Config struct {
	// BaseURL is the store's admin base, e.g. "https://shop.example/admin/".
	BaseURL string
	// StoreLabel identifies the store in logs.
	StoreLabel string
	// RemoteURL attaches to an already-running, already-authenticated
	// Chrome over CDP instead of launching a new browser.
	RemoteURL string
	// Headless mode for launched browsers.
	Headless bool
	// NoSandbox runs Chrome without sandbox (required for Docker/root).
	NoSandbox bool
	// DeepLinkPaging navigates paged listing URLs directly. When false
	// the pager is advanced by clicking "next" and FetchListingPage
	// reads whatever the current table shows for pages past the first.
	DeepLinkPaging bool
	// PageSize requested from the listing.
	PageSize int
	// NavigationTimeout bounds every navigation and extraction.
	NavigationTimeout time.Duration
	// StepDelay is a short settle pause after form interactions.
	StepDelay time.Duration
	Logger    *zap.Logger
}

// Driver is a stateful storefront session: one browser tab, one current
// page. It must not be shared across concurrent callers.
type Driver struct {
	cfg  Config
	base string
	log  *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	closed      bool
}

var _ domain.PageDriver = (*Driver)(nil)

// New creates a driver session for the given store. The returned driver
// owns a browser tab until Close is called.
func New(cfg Config) (*Driver, error) {
	base, err := NormalizeAdminBase(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("store base url: %w", err)
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if cfg.StepDelay <= 0 {
		cfg.StepDelay = defaultStepDelay
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	d := &Driver{cfg: cfg, base: base, log: log.With(zap.String("store", cfg.StoreLabel))}

	if cfg.RemoteURL != "" {
		d.allocCtx, d.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-first-run", true),
			chromedp.Flag("disable-default-apps", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-background-networking", true),
			chromedp.Flag("disable-sync", true),
		)
		if cfg.NoSandbox {
			opts = append(opts, chromedp.Flag("no-sandbox", true))
		}
		d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	d.tabCtx, d.tabCancel = chromedp.NewContext(d.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			d.log.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// Bring the tab up and enable network domain events so the session
	// identifies itself consistently to the platform.
	bootCtx, cancel := context.WithTimeout(d.tabCtx, cfg.NavigationTimeout)
	defer cancel()
	err = chromedp.Run(bootCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "pt-BR,pt;q=0.9"}),
	)
	if err != nil {
		d.tabCancel()
		d.allocCancel()
		return nil, fmt.Errorf("browser bootstrap: %w", err)
	}

	d.log.Info("driver session ready",
		zap.String("base", base),
		zap.Bool("remote", cfg.RemoteURL != ""))
	return d, nil
}

// Close releases the tab and, for launched browsers, the browser itself.
func (d *Driver) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.tabCancel()
	d.allocCancel()
}

// op derives a bounded chromedp context for one driver operation,
// propagating the caller's cancellation into it.
func (d *Driver) op(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if d.closed {
		return nil, nil, domain.ErrDriverClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	opCtx, cancel := context.WithTimeout(d.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() { stop(); cancel() }, nil
}

// settle gives the client-side app a short pause to finish rendering.
func (d *Driver) settle(ctx context.Context) {
	select {
	case <-time.After(d.cfg.StepDelay):
	case <-ctx.Done():
	}
}
