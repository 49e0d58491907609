package browser

import (
	"strings"
	"testing"

	"github.com/traysync/backend/internal/domain"
)

func TestFieldFillsCoverTextPayloadFields(t *testing.T) {
	payload := &domain.ProductPayload{
		SKU:            "REF-1",
		Name:           "Produto Um",
		Description:    "descricao",
		AdditionalInfo: "info",
		Price:          "19,90",
		Stock:          "3",
		Dimensions: domain.Dimensions{
			Weight: "0.5",
			Height: "10",
			Width:  "20",
			Length: "30",
		},
	}

	fills := fieldFills(payload)

	values := make(map[string]bool, len(fills))
	for _, f := range fills {
		if len(f.selectors) == 0 {
			t.Errorf("fill for %q has no selectors", f.value)
		}
		values[f.value] = true
	}
	for _, want := range []string{
		"REF-1", "Produto Um", "descricao", "info",
		"19,90", "3", "0.5", "10", "20", "30",
	} {
		if !values[want] {
			t.Errorf("no form fill carries payload value %q", want)
		}
	}
}

func TestCategoryGoesThroughSelectHelper(t *testing.T) {
	expr := selectExpr(categorySelectors, "Bebidas > Sucos")

	if !strings.HasPrefix(expr, "window.__syncSelect(") {
		t.Errorf("expr = %q, want a __syncSelect call", expr)
	}
	for _, selector := range []string{`select[name*="category"]`, `select[name*="categoria"]`} {
		if !strings.Contains(expr, selector) {
			t.Errorf("expr %q misses selector %q", expr, selector)
		}
	}
	if !strings.Contains(expr, "'Bebidas > Sucos'") {
		t.Errorf("expr %q misses the category value", expr)
	}
}

func TestFillExprEscapesValues(t *testing.T) {
	expr := fillExpr([]string{`input[name="name"]`}, `Kit d'água "10"\n`)

	if !strings.Contains(expr, `\'`) {
		t.Errorf("expr %q leaves the quote unescaped", expr)
	}
	if strings.Count(expr, `\\`) == 0 {
		t.Errorf("expr %q leaves the backslash unescaped", expr)
	}
}
