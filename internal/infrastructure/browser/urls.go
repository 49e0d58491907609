package browser

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeAdminBase turns a raw store URL into its canonical admin
// base, always scheme-qualified and ending in "/admin/".
func NormalizeAdminBase(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.Contains(cleaned, "://") {
		cleaned = "https://" + cleaned
	}
	parsed, err := url.Parse(cleaned)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no host in %q", raw)
	}
	if idx := strings.Index(parsed.Path, "/admin"); idx >= 0 {
		parsed.Path = parsed.Path[:idx]
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/admin/"
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

// adminURL joins a relative path onto an admin base.
func adminURL(base, path string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return base + strings.TrimLeft(path, "/")
	}
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return base + strings.TrimLeft(path, "/")
	}
	return baseURL.ResolveReference(ref).String()
}

// listingURL is the deep link to one page of the product listing.
func listingURL(base string, page, size int) string {
	if size <= 0 {
		size = 25
	}
	query := url.Values{}
	query.Set("status", "all")
	query.Set("page[size]", fmt.Sprint(size))
	query.Set("page[number]", fmt.Sprint(page))
	return adminURL(base, "products/list") + "?" + query.Encode()
}

// resolveEditRef resolves a listing row's edit locator, which the
// platform renders either absolute or relative to the admin base.
func resolveEditRef(base, ref string) string {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "://") {
		return trimmed
	}
	return adminURL(base, trimmed)
}
