package seoulapi

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippetLen = 512

// markupResult extracts a RESULT/CODE envelope from an XML or HTML body.
// The gateway falls back to XML for some failures even when JSON was requested.
func markupResult(body []byte) (Result, bool) {
	if !looksLikeMarkup(body) {
		return Result{}, false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}, false
	}
	code := strings.TrimSpace(doc.Find("result code").First().Text())
	if code == "" {
		return Result{}, false
	}
	return Result{
		Code:    code,
		Message: strings.TrimSpace(doc.Find("result message").First().Text()),
	}, true
}

// bodySummary returns a short human-readable description of an error body.
func bodySummary(body []byte, contentType string) string {
	if strings.Contains(strings.ToLower(contentType), "html") || looksLikeMarkup(body) {
		if res, ok := markupResult(body); ok {
			return strings.TrimSpace(res.Code + " " + res.Message)
		}
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return title
			}
		}
	}
	return snippet(body)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty>"
	}
	if len(s) > maxSnippetLen {
		return s[:maxSnippetLen] + "..."
	}
	return s
}

func looksLikeMarkup(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("<"))
}
