package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/traysync/backend/internal/domain"
)

// rawDetail mirrors the object shape produced by extractDetailJS.
type rawDetail struct {
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	AdditionalInfo string           `json:"additionalInfo"`
	Price          string           `json:"price"`
	Stock          string           `json:"stock"`
	Weight         string           `json:"weight"`
	Height         string           `json:"height"`
	Width          string           `json:"width"`
	Length         string           `json:"length"`
	Category       string           `json:"category"`
	Images         []string         `json:"images"`
	Infos          []map[string]any `json:"infos"`
}

// extractDetailJS reads the structured fields of the edit view. Field
// lookups try multiple selectors because the platform renders forms
// differently across themes and product types.
const extractDetailJS = `
(() => {
	const val = (sels) => {
		for (const s of sels) {
			const el = document.querySelector(s);
			if (el && (el.value || '').toString().trim()) return el.value.toString().trim();
		}
		return '';
	};
	const text = (sels) => {
		for (const s of sels) {
			const el = document.querySelector(s);
			if (el && (el.innerText || '').trim()) return el.innerText.trim();
		}
		return '';
	};
	const byLegend = (label) => {
		const target = label.toLowerCase();
		for (const group of document.querySelectorAll('fieldset, .form-group, .app-form__group')) {
			const legend = group.querySelector('legend, label');
			if (!legend) continue;
			if ((legend.innerText || '').trim().toLowerCase().includes(target)) {
				const input = group.querySelector('input, textarea');
				if (input && (input.value || '').trim()) return input.value.trim();
			}
		}
		return '';
	};

	const images = [...document.querySelectorAll(
		'.product-images img, .upload-preview img, [class*="gallery"] img, [class*="image-list"] img'
	)].map(img => img.currentSrc || img.src || '').filter(src => src && !src.startsWith('data:'));

	const infos = [];
	for (const row of document.querySelectorAll('[class*="additional"] tr, [class*="additional-info"] li')) {
		const label = (row.querySelector('label, th, .name') || {}).innerText || '';
		if (!label.trim()) continue;
		const select = row.querySelector('select');
		if (select) {
			infos.push({
				name: label.trim(),
				options: [...select.options].map(o => ({ value: o.value, label: o.text })),
				selected: select.value,
			});
		} else {
			const input = row.querySelector('input, textarea');
			infos.push({ name: label.trim(), value: input ? (input.value || '').trim() : '' });
		}
	}

	return {
		sku: val(['input[name*="reference"]', 'input[name*="referencia"]', 'input[name="sku"]', 'input[id*="reference"]', 'input[id*="sku"]']),
		name: val(['input[name="name"]', 'input[name*="nome"]', 'input[id*="product-name"]']),
		description: val(['textarea[name*="description"]', 'textarea[name*="descricao"]']) ||
			text(['.ql-editor', '[class*="description"] .editor']),
		additionalInfo: val(['textarea[name*="additional"]', 'textarea[name*="informacao"]', 'textarea[id*="additional"]']),
		price: val(['input[name="price"]', 'input[name*="preco"]', 'input[id*="price"]']),
		stock: val(['input[name="stock"]', 'input[name*="estoque"]', 'input[id*="stock"]']),
		weight: val(['input[name*="weight"]', 'input[name*="peso"]']) || byLegend('peso'),
		height: val(['input[name*="height"]', 'input[name*="altura"]']) || byLegend('altura'),
		width: val(['input[name*="width"]', 'input[name*="largura"]']) || byLegend('largura'),
		length: val(['input[name*="length"]', 'input[name*="comprimento"]']) || byLegend('comprimento'),
		category: val(['select[name*="category"] option:checked', 'input[name*="categoria"]']) ||
			text(['[class*="category"] .selected', '[class*="breadcrumb"]']),
		images,
		infos,
	};
})()`

// FetchProductDetail opens the product's edit view and reads its full
// structured record.
func (d *Driver) FetchProductDetail(ctx context.Context, locator string) (*domain.RawProductRecord, error) {
	if locator == "" {
		return nil, fmt.Errorf("%w: empty locator", domain.ErrDetailUnavailable)
	}
	opCtx, cancel, err := d.op(ctx, d.cfg.NavigationTimeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	target := resolveEditRef(d.base, locator)
	var detail rawDetail
	if err := chromedp.Run(opCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
		openCollapsedSections(),
		chromedp.Evaluate(extractDetailJS, &detail),
	); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDetailUnavailable, target, err)
	}

	record := &domain.RawProductRecord{
		SKU:            detail.SKU,
		Name:           detail.Name,
		Description:    detail.Description,
		AdditionalInfo: detail.AdditionalInfo,
		Price:          detail.Price,
		Stock:          detail.Stock,
		Dimensions: domain.Dimensions{
			Weight: detail.Weight,
			Height: detail.Height,
			Width:  detail.Width,
			Length: detail.Length,
		},
		Category:        detail.Category,
		ImageURLs:       detail.Images,
		AdditionalInfos: detail.Infos,
	}
	d.log.Debug("product detail extracted",
		zap.String("locator", target),
		zap.String("sku", record.SKU),
		zap.Int("images", len(record.ImageURLs)),
		zap.Int("infos", len(record.AdditionalInfos)))
	return record, nil
}
