// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const defaultUserAgent = "research-assistant/0.1"

// ChromeExtractor renders pages in headless Chrome and extracts the
// readable text from the rendered DOM. Rendering a page can suspend for
// the full page-load time; callers bound each call with a context
// deadline.
type ChromeExtractor struct {
	Headless  bool
	UserAgent string
}

// NewChromeExtractor returns an extractor configured from cfg.
func NewChromeExtractor(cfg types.ExtractionConfig) *ChromeExtractor {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &ChromeExtractor{Headless: cfg.Headless, UserAgent: ua}
}

// Extract navigates to url, waits for the document to render, and
// returns the cleaned readable text.
func (c *ChromeExtractor) Extract(ctx context.Context, url string) (types.ExtractedDocument, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.Headless),
		chromedp.UserAgent(c.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html, title string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return types.ExtractedDocument{}, fmt.Errorf("rendering %s: %w", url, err)
	}

	text, docTitle, err := ReadableText(html)
	if err != nil {
		return types.ExtractedDocument{}, fmt.Errorf("parsing %s: %w", url, err)
	}
	if title == "" {
		title = docTitle
	}

	return types.ExtractedDocument{
		URL:       url,
		Title:     strings.TrimSpace(title),
		Text:      text,
		Retrieved: time.Now().UTC(),
	}, nil
}

// skipSelectors are removed from the DOM before text collection. They
// hold navigation, chrome, and scripting rather than article content.
var skipSelectors = []string{
	"script", "style", "noscript", "template", "iframe",
	"nav", "header", "footer", "aside", "form", "button",
}

// contentSelectors are the elements whose text is collected, in document
// order.
const contentSelectors = "h1, h2, h3, h4, p, li, pre, blockquote, td, figcaption"

// ReadableText parses rendered HTML and returns the cleaned readable
// text and the document title.
func ReadableText(html string) (text, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	for _, sel := range skipSelectors {
		doc.Find(sel).Remove()
	}

	var lines []string
	doc.Find(contentSelectors).Each(func(_ int, s *goquery.Selection) {
		// Skip containers whose text is fully covered by a nested
		// content element (e.g. an li wrapping a p).
		if s.Children().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return c.Is(contentSelectors)
		}).Length() > 0 {
			return
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			lines = append(lines, t)
		}
	})

	return CleanText(strings.Join(lines, "\n")), title, nil
}
