// Package govtech implements the adapter for HTML-based government
// technology procurement listings, scraped with Colly.
package govtech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
	"github.com/JakeFAU/rfp-radar/internal/source"
)

// Name is the registry key for this adapter.
const Name = "govtech"

// Listing containers seen across procurement portals.
const containerSelector = ".opportunity-item, .procurement-listing, .rfp-item, .bid-opportunity"

// Adapter scrapes HTML listing pages into opportunities.
type Adapter struct {
	logger *zap.Logger
}

// New builds an Adapter.
func New(logger *zap.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// Name implements rfp.Source.
func (a *Adapter) Name() string {
	return Name
}

// Fetch visits each configured listing page and parses its opportunity
// containers. A page that yields no containers is not an error; failing to
// reach every configured page is.
func (a *Adapter) Fetch(ctx context.Context, cfg rfp.FetchConfig) ([]rfp.Opportunity, error) {
	if len(cfg.GovtechURLs) == 0 {
		return nil, fmt.Errorf("govtech: no listing URLs configured")
	}

	var (
		opportunities []rfp.Opportunity
		visitErrs     []error
	)
	for _, url := range cfg.GovtechURLs {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("govtech: canceled: %w", ctx.Err())
		}
		opps, err := a.scrapePage(ctx, url, cfg)
		if err != nil {
			a.logger.Warn("govtech page failed", zap.String("url", url), zap.Error(err))
			visitErrs = append(visitErrs, err)
			continue
		}
		opportunities = append(opportunities, opps...)
	}

	if len(visitErrs) == len(cfg.GovtechURLs) {
		return nil, fmt.Errorf("govtech: all %d pages failed, first error: %w", len(visitErrs), visitErrs[0])
	}
	return opportunities, nil
}

func (a *Adapter) scrapePage(ctx context.Context, url string, cfg rfp.FetchConfig) ([]rfp.Opportunity, error) {
	collector := colly.NewCollector(colly.Async(false))
	if cfg.UserAgent != "" {
		collector.UserAgent = cfg.UserAgent
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		opportunities []rfp.Opportunity
		fetchErr      error
	)
	collector.OnHTML(containerSelector, func(e *colly.HTMLElement) {
		if opp, ok := a.parseContainer(e); ok {
			opportunities = append(opportunities, opp)
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("visit canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit %s: %w", url, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, fetchErr)
		}
	}
	return opportunities, nil
}

// parseContainer maps one listing container to an opportunity. Listings
// without a title and agency are skipped; every other missing field is
// replaced by its sentinel.
func (a *Adapter) parseContainer(e *colly.HTMLElement) (rfp.Opportunity, bool) {
	title := firstChildText(e, ".title", ".opportunity-title", "h3", "h4", ".name")
	agency := firstChildText(e, ".agency", ".department", ".organization", ".issuer")
	if title == "" || agency == "" {
		return rfp.Opportunity{}, false
	}

	deadline := source.NormalizeDate(firstChildText(e, ".deadline", ".due-date", ".closing-date", ".expires"))
	value := source.NormalizeValue(firstChildText(e, ".value", ".amount", ".budget", ".contract-value"))
	description := source.TruncateDescription(firstChildText(e, ".description", ".summary", ".details"))

	return rfp.Opportunity{
		Title:       title,
		Agency:      agency,
		Deadline:    deadline,
		Value:       value,
		Contact:     source.NormalizeContact(firstChildText(e, ".contact", ".point-of-contact", ".email")),
		URL:         a.listingURL(e),
		Description: description,
		Keywords:    source.ExtractKeywords(title + " " + description),
	}, true
}

func (a *Adapter) listingURL(e *colly.HTMLElement) string {
	if href := e.ChildAttr("a[href]", "href"); href != "" {
		return e.Request.AbsoluteURL(href)
	}
	return e.Request.URL.String()
}

// firstChildText returns the first non-empty trimmed text among the
// candidate selectors.
func firstChildText(e *colly.HTMLElement, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(e.ChildText(sel)); text != "" {
			return text
		}
	}
	return ""
}
