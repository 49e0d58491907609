package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/traysync/backend/internal/domain"
)

// fillHelpersJS installs form helpers on the page. Values are set
// through the native property setter and followed by input/change
// events so reactive form frameworks observe the edit.
const fillHelpersJS = `
(() => {
	window.__syncFill = (selectors, value) => {
		for (const s of selectors) {
			const el = document.querySelector(s);
			if (!el) continue;
			const proto = el.tagName === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
			const setter = Object.getOwnPropertyDescriptor(proto, 'value').set;
			setter.call(el, value);
			el.dispatchEvent(new Event('input', { bubbles: true }));
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
		return false;
	};
	window.__syncSelect = (selectors, value) => {
		for (const s of selectors) {
			const el = document.querySelector(s);
			if (!el) continue;
			const match = [...el.options].find(o => o.value === value || o.text.trim() === value);
			if (!match) return false;
			el.value = match.value;
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
		return false;
	};
	return true;
})()`

// openSectionsJS expands collapsed form panels so their fields become
// reachable. The edit view hides dimensions and extra info behind
// "Mais opções" style toggles.
const openSectionsJS = `
(() => {
	let opened = 0;
	for (const el of document.querySelectorAll('button, a, [role="button"]')) {
		const label = (el.innerText || '').trim().toLowerCase();
		if (label.includes('mais opç') || label.includes('mais opc') || label.includes('exibir mais')) {
			el.click();
			opened++;
		}
	}
	for (const el of document.querySelectorAll('[aria-expanded="false"][data-toggle], .collapsed[data-toggle="collapse"]')) {
		el.click();
		opened++;
	}
	return opened;
})()`

// submitJS saves the form and returns any validation messages the page
// surfaced instead of accepting it.
const submitJS = `
(() => {
	const buttons = [...document.querySelectorAll('button[type="submit"], button, input[type="submit"]')];
	const save = buttons.find(b => /salvar|save/i.test((b.innerText || b.value || '').trim()));
	if (!save) return 'no save button found';
	save.click();
	return '';
})()`

// validationErrorsJS collects inline and banner validation text after a
// save attempt.
const validationErrorsJS = `
(() => {
	const out = [];
	for (const el of document.querySelectorAll('.alert-danger, .error-message, .invalid-feedback, [class*="error"] li')) {
		const text = (el.innerText || '').trim();
		if (text && el.offsetParent !== null) out.push(text);
	}
	return out.slice(0, 5).join('; ');
})()`

func openCollapsedSections() chromedp.Action {
	var opened int
	return chromedp.Evaluate(openSectionsJS, &opened)
}

// CreateProduct registers a new product through the creation form.
// The bool mirrors whether the platform accepted the submission.
func (d *Driver) CreateProduct(ctx context.Context, payload *domain.ProductPayload) (bool, string, error) {
	opCtx, cancel, err := d.op(ctx, d.cfg.NavigationTimeout)
	if err != nil {
		return false, "", err
	}
	defer cancel()

	target := adminURL(d.base, "products/new")
	if err := chromedp.Run(opCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
	); err != nil {
		return false, "", fmt.Errorf("open creation form: %w", err)
	}
	d.settle(opCtx)

	msg, err := d.fillAndSubmit(opCtx, payload)
	if err != nil {
		return false, msg, err
	}
	d.log.Info("product created",
		zap.String("store", d.cfg.StoreLabel),
		zap.String("sku", payload.SKU))
	return true, msg, nil
}

// UpdateProduct opens an existing product's edit view and overwrites
// its fields with the payload.
func (d *Driver) UpdateProduct(ctx context.Context, identity string, payload *domain.ProductPayload) (bool, string, error) {
	if identity == "" {
		return false, "", fmt.Errorf("%w: empty product identity", domain.ErrMutationRejected)
	}
	opCtx, cancel, err := d.op(ctx, d.cfg.NavigationTimeout)
	if err != nil {
		return false, "", err
	}
	defer cancel()

	target := resolveEditRef(d.base, identity)
	if err := chromedp.Run(opCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
	); err != nil {
		return false, "", fmt.Errorf("open edit view %s: %w", target, err)
	}
	d.settle(opCtx)

	msg, err := d.fillAndSubmit(opCtx, payload)
	if err != nil {
		return false, msg, err
	}
	d.log.Info("product updated",
		zap.String("store", d.cfg.StoreLabel),
		zap.String("sku", payload.SKU),
		zap.String("identity", identity))
	return true, msg, nil
}

type fieldFill struct {
	selectors []string
	value     string
}

// fieldFills maps each text-style payload field onto the form inputs
// that can receive it, Portuguese layouts first. Empty values are
// filtered out at fill time.
func fieldFills(payload *domain.ProductPayload) []fieldFill {
	return []fieldFill{
		{[]string{`input[name="name"]`, `input[name*="nome"]`, `input[id*="product-name"]`}, payload.Name},
		{[]string{`input[name*="reference"]`, `input[name*="referencia"]`, `input[name="sku"]`}, payload.SKU},
		{[]string{`textarea[name*="description"]`, `textarea[name*="descricao"]`}, payload.Description},
		{[]string{`textarea[name*="additional"]`, `textarea[name*="informacao"]`}, payload.AdditionalInfo},
		{[]string{`input[name="price"]`, `input[name*="preco"]`}, payload.Price},
		{[]string{`input[name="stock"]`, `input[name*="estoque"]`}, payload.Stock},
		{[]string{`input[name*="weight"]`, `input[name*="peso"]`}, payload.Dimensions.Weight},
		{[]string{`input[name*="height"]`, `input[name*="altura"]`}, payload.Dimensions.Height},
		{[]string{`input[name*="width"]`, `input[name*="largura"]`}, payload.Dimensions.Width},
		{[]string{`input[name*="length"]`, `input[name*="comprimento"]`}, payload.Dimensions.Length},
	}
}

// categorySelectors locate the category dropdown on both the creation
// and edit forms.
var categorySelectors = []string{
	`select[name*="category"]`,
	`select[name*="categoria"]`,
	`select[id*="category"]`,
}

func fillExpr(selectors []string, value string) string {
	return fmt.Sprintf("window.__syncFill(%s, %s)", jsStringArray(selectors), jsString(value))
}

func selectExpr(selectors []string, value string) string {
	return fmt.Sprintf("window.__syncSelect(%s, %s)", jsStringArray(selectors), jsString(value))
}

// fillAndSubmit writes every non-empty payload field into the open
// form, saves it, and reads back any validation failure.
func (d *Driver) fillAndSubmit(opCtx context.Context, payload *domain.ProductPayload) (string, error) {
	if err := chromedp.Run(opCtx, chromedp.Evaluate(fillHelpersJS, nil), openCollapsedSections()); err != nil {
		return "", fmt.Errorf("prepare form: %w", err)
	}
	d.settle(opCtx)

	var skipped []string
	for _, f := range fieldFills(payload) {
		if f.value == "" {
			continue
		}
		var ok bool
		if err := chromedp.Run(opCtx, chromedp.Evaluate(fillExpr(f.selectors, f.value), &ok)); err != nil {
			return "", fmt.Errorf("fill field: %w", err)
		}
		if !ok {
			skipped = append(skipped, f.selectors[0])
		}
	}
	if payload.Category != "" {
		var ok bool
		if err := chromedp.Run(opCtx, chromedp.Evaluate(selectExpr(categorySelectors, payload.Category), &ok)); err != nil {
			return "", fmt.Errorf("select category: %w", err)
		}
		if !ok {
			d.log.Warn("category option not found on form",
				zap.String("category", payload.Category))
		}
	}
	for _, field := range payload.Fields {
		if err := d.fillAdditionalInfo(opCtx, field); err != nil {
			d.log.Warn("additional info field not applied",
				zap.String("label", field.Label), zap.Error(err))
		}
	}
	if len(skipped) > 0 {
		d.log.Debug("form fields not present on page", zap.Strings("selectors", skipped))
	}

	var submitErr string
	if err := chromedp.Run(opCtx, chromedp.Evaluate(submitJS, &submitErr)); err != nil {
		return "", fmt.Errorf("submit form: %w", err)
	}
	if submitErr != "" {
		return submitErr, fmt.Errorf("%w: %s", domain.ErrMutationRejected, submitErr)
	}
	d.settle(opCtx)
	d.settle(opCtx)

	var validation string
	if err := chromedp.Run(opCtx, chromedp.Evaluate(validationErrorsJS, &validation)); err != nil {
		return "", fmt.Errorf("read validation state: %w", err)
	}
	if validation != "" {
		return validation, fmt.Errorf("%w: %s", domain.ErrMutationRejected, validation)
	}
	return "", nil
}

// fillAdditionalInfo targets an extra-info input or select by its
// visible label.
func (d *Driver) fillAdditionalInfo(opCtx context.Context, field domain.AdditionalInfoField) error {
	value := field.Value
	if field.Kind == domain.FieldKindSelect {
		value = field.Selected
	}
	if field.Label == "" || value == "" {
		return nil
	}
	expr := fmt.Sprintf(`
(() => {
	const target = %s.toLowerCase();
	for (const row of document.querySelectorAll('[class*="additional"] tr, [class*="additional-info"] li, .form-group')) {
		const label = (row.querySelector('label, th, .name') || {}).innerText || '';
		if (!label.trim().toLowerCase().includes(target)) continue;
		const select = row.querySelector('select');
		if (select) {
			const match = [...select.options].find(o => o.value === %[2]s || o.text.trim() === %[2]s);
			if (!match) return false;
			select.value = match.value;
			select.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
		const input = row.querySelector('input, textarea');
		if (!input) return false;
		return window.__syncFill(['#' + input.id].filter(s => s !== '#'), %[2]s) ||
			(() => {
				const proto = input.tagName === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
				Object.getOwnPropertyDescriptor(proto, 'value').set.call(input, %[2]s);
				input.dispatchEvent(new Event('input', { bubbles: true }));
				input.dispatchEvent(new Event('change', { bubbles: true }));
				return true;
			})();
	}
	return false;
})()`, jsString(field.Label), jsString(value))
	var ok bool
	if err := chromedp.Run(opCtx, chromedp.Evaluate(expr, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no matching field for label %q", field.Label)
	}
	return nil
}

func jsString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func jsStringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = jsString(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
