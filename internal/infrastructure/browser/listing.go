package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/traysync/backend/internal/domain"
)

// rawListingRow mirrors the object shape produced by extractRowsJS.
type rawListingRow struct {
	SKU  string `json:"sku"`
	Code string `json:"code"`
	Name string `json:"name"`
	Href string `json:"href"`
}

// extractRowsJS pulls one object per listing row. The merchant SKU is
// resolved from several places because the platform renders it
// inconsistently: data attributes, an explicit "Ref:" label, or the
// second line of the code cell. A single line of digits is the
// platform's own internal code, never a merchant reference.
const extractRowsJS = `
(() => {
	const clean = (v) => (v || '').toString().trim();

	const extractSku = (tr, cells) => {
		for (const attr of ['data-sku', 'data-reference', 'data-ref', 'data-referencia']) {
			const el = tr.querySelector('[' + attr + ']');
			if (el) {
				const val = clean(el.getAttribute(attr));
				if (val) return val;
			}
		}

		const fullText = clean(tr.innerText || '');
		const refPatterns = [
			/(?:ref(?:er[eê]ncia)?)[\.:\s]+([^\n\t|]{1,60})/i,
			/\bref[\.:][ \t]+([A-Za-z0-9\-_\/\.]{1,60})/i,
		];
		for (const pattern of refPatterns) {
			const m = fullText.match(pattern);
			if (m && m[1]) {
				const val = clean(m[1]).split('|')[0].trim();
				if (val) return val;
			}
		}

		const codeCell = cells[1];
		if (codeCell) {
			const lines = clean(codeCell.innerText || '').split('\n').map(l => l.trim()).filter(Boolean);
			if (lines.length >= 2) return lines[1];
			if (lines.length === 1) {
				const only = lines[0];
				if (/^\d+$/.test(only)) return '';
				if (/^(ativo|inativo|sim|não|nao|status|pausado)$/i.test(only)) return '';
				return only;
			}
		}
		return '';
	};

	const trs = [...document.querySelectorAll('table tbody tr')];
	return trs.map((tr) => {
		const cells = [...tr.querySelectorAll('td')];
		const codeCell = cells[1] || null;
		const productCell = cells[2] || null;
		const actionsCell = cells.length ? cells[cells.length - 1] : null;

		const codeText = clean(codeCell ? codeCell.innerText : '');
		const codeFirstLine = codeText.split('\n').map(x => x.trim()).filter(Boolean)[0] || '';
		const sku = extractSku(tr, cells);
		const name = clean(((productCell ? productCell.innerText : '') || '').split('\n')[0] || '');

		const anchors = [...tr.querySelectorAll('a[href]')];
		const editAnchor = anchors.find((a) => {
			const href = (a.getAttribute('href') || '').toLowerCase();
			return href.includes('/products/edit') || href.includes('/product/edit') ||
				href.includes('products/form') || href.includes('/mvc/adm/products/edit');
		}) || (actionsCell && actionsCell.querySelector('a[href]')) ||
			(productCell && productCell.querySelector('a[href]')) || null;

		return { sku, code: codeFirstLine, name, href: editAnchor ? (editAnchor.getAttribute('href') || '') : '' };
	}).filter(item => item.href || item.sku || item.code || item.name);
})()`

// nextButtonStateJS reports the pager's "next" control as one of
// "missing", "disabled" or "enabled"; with click=true it also clicks.
const nextButtonStateJS = `
((click) => {
	const selectors = [
		'.paginator__controls ul li:nth-last-child(2) button',
		'.paginator__controls ul li:nth-child(8) button',
		'button[aria-label*="próxim" i]',
		'button[aria-label*="next" i]',
		'.pagination li.next a',
	];
	for (const sel of selectors) {
		const btn = document.querySelector(sel);
		if (!btn) continue;
		if (btn.disabled || btn.getAttribute('aria-disabled') === 'true' ||
			(btn.closest('li') && btn.closest('li').classList.contains('disabled'))) {
			return 'disabled';
		}
		if (click) btn.click();
		return 'enabled';
	}
	return 'missing';
})`

// fingerprintJS identifies the rendered table by its first row.
const fingerprintJS = `
(() => {
	const first = document.querySelector('table tbody tr');
	return first ? (first.innerText || '').trim().substring(0, 80) : '';
})()`

// FetchListingPage presents the requested listing page and extracts its
// rows. With deep-link paging every page is a direct navigation; with
// click paging only page 1 navigates and later pages read the table the
// pager already advanced to.
func (d *Driver) FetchListingPage(ctx context.Context, page int) (*domain.ListingPage, error) {
	opCtx, cancel, err := d.op(ctx, d.cfg.NavigationTimeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if page == 1 || d.cfg.DeepLinkPaging {
		target := listingURL(d.base, page, d.cfg.PageSize)
		if err := chromedp.Run(opCtx,
			chromedp.Navigate(target),
			chromedp.WaitReady("body"),
		); err != nil {
			return nil, fmt.Errorf("%w: navigate page %d: %v", domain.ErrListingUnavailable, page, err)
		}
		d.settle(opCtx)
	}

	var rows []rawListingRow
	var nextState string
	if err := chromedp.Run(opCtx,
		chromedp.Evaluate(extractRowsJS, &rows),
		chromedp.Evaluate(nextButtonStateJS+"(false)", &nextState),
	); err != nil {
		return nil, fmt.Errorf("%w: extract page %d: %v", domain.ErrListingUnavailable, page, err)
	}

	listing := &domain.ListingPage{HasNext: nextState == "enabled"}
	for _, row := range rows {
		listing.Rows = append(listing.Rows, domain.RawRow{
			SKU:     row.SKU,
			Code:    row.Code,
			Name:    row.Name,
			EditRef: resolveEditRef(d.base, row.Href),
		})
	}
	d.log.Debug("listing page extracted",
		zap.Int("page", page),
		zap.Int("rows", len(listing.Rows)),
		zap.Bool("has_next", listing.HasNext))
	return listing, nil
}

// AdvanceListing clicks the pager's "next" control. It reports false,
// without clicking, when the control is missing or disabled.
func (d *Driver) AdvanceListing(ctx context.Context) (bool, error) {
	opCtx, cancel, err := d.op(ctx, d.cfg.NavigationTimeout)
	if err != nil {
		return false, err
	}
	defer cancel()

	var state string
	if err := chromedp.Run(opCtx, chromedp.Evaluate(nextButtonStateJS+"(true)", &state)); err != nil {
		return false, fmt.Errorf("next action: %w", err)
	}
	return state == "enabled", nil
}

// Fingerprint returns a cheap identity of the current listing page.
func (d *Driver) Fingerprint(ctx context.Context) (string, error) {
	opCtx, cancel, err := d.op(ctx, d.cfg.NavigationTimeout)
	if err != nil {
		return "", err
	}
	defer cancel()

	var fp string
	if err := chromedp.Run(opCtx, chromedp.Evaluate(fingerprintJS, &fp)); err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return fp, nil
}

// WaitForFingerprintChange polls until the first row differs from
// previous or the timeout elapses.
func (d *Driver) WaitForFingerprintChange(ctx context.Context, previous string, timeout time.Duration) (bool, error) {
	opCtx, cancel, err := d.op(ctx, timeout)
	if err != nil {
		return false, err
	}
	defer cancel()

	ticker := time.NewTicker(fingerprintPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-opCtx.Done():
			return false, nil
		case <-ticker.C:
			var fp string
			if err := chromedp.Run(opCtx, chromedp.Evaluate(fingerprintJS, &fp)); err != nil {
				// The tab may be mid-render; keep polling until timeout.
				continue
			}
			if fp != "" && fp != previous {
				d.settle(opCtx)
				return true, nil
			}
		}
	}
}
