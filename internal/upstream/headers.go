package upstream

import "net/http"

// antiBotMarker is the body substring that signals an anti-bot block page
// rather than a real API response. Matched case-insensitively.
const antiBotMarker = "cloudflare"

// browserHeaders is the fixed descriptive header set sent with every upstream
// request. Public market-data endpoints sit behind bot protection that rejects
// bare default clients.
var browserHeaders = map[string]string{
	"Accept":             "application/json",
	"Accept-Language":    "en-US,en;q=0.9",
	"User-Agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Origin":             "https://polymarket.com",
	"Referer":            "https://polymarket.com/",
	"Cache-Control":      "no-cache",
	"Pragma":             "no-cache",
	"DNT":                "1",
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-site",
	"Sec-Ch-Ua":          `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"macOS"`,
}

// applyHeaders sets the fixed header set on req.
func applyHeaders(req *http.Request) {
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
}
