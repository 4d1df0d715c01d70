// Package rssfeed implements the adapter for procurement RSS/Atom feeds.
package rssfeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
	"github.com/JakeFAU/rfp-radar/internal/source"
)

// Name is the registry key for this adapter.
const Name = "rssfeed"

const maxPerFeed = 50

// Adapter parses procurement feeds into opportunities.
type Adapter struct {
	parser *gofeed.Parser
	logger *zap.Logger
}

// New builds an Adapter.
func New(logger *zap.Logger) *Adapter {
	return &Adapter{parser: gofeed.NewParser(), logger: logger}
}

// Name implements rfp.Source.
func (a *Adapter) Name() string {
	return Name
}

// Fetch parses every configured feed. A single unreachable feed is
// tolerated; all feeds failing is a source failure.
func (a *Adapter) Fetch(ctx context.Context, cfg rfp.FetchConfig) ([]rfp.Opportunity, error) {
	if len(cfg.RSSFeeds) == 0 {
		return nil, fmt.Errorf("rssfeed: no feeds configured")
	}
	if cfg.UserAgent != "" {
		a.parser.UserAgent = cfg.UserAgent
	}

	var (
		opportunities []rfp.Opportunity
		feedErrs      []error
	)
	for _, feedURL := range cfg.RSSFeeds {
		feed, err := a.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			a.logger.Warn("feed parse failed", zap.String("feed", feedURL), zap.Error(err))
			feedErrs = append(feedErrs, err)
			continue
		}
		opportunities = append(opportunities, a.parseFeed(feed)...)
	}

	if len(feedErrs) == len(cfg.RSSFeeds) {
		return nil, fmt.Errorf("rssfeed: all %d feeds failed, first error: %w", len(feedErrs), feedErrs[0])
	}
	return opportunities, nil
}

func (a *Adapter) parseFeed(feed *gofeed.Feed) []rfp.Opportunity {
	agency := strings.TrimSpace(feed.Title)
	var opportunities []rfp.Opportunity
	for _, item := range feed.Items {
		if len(opportunities) >= maxPerFeed {
			break
		}
		opp, ok := a.parseItem(item, agency)
		if !ok {
			continue
		}
		opportunities = append(opportunities, opp)
	}
	return opportunities
}

func (a *Adapter) parseItem(item *gofeed.Item, agency string) (rfp.Opportunity, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return rfp.Opportunity{}, false
	}
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	if link == "" {
		return rfp.Opportunity{}, false
	}

	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		agency = strings.TrimSpace(item.Author.Name)
	}

	description := source.TruncateDescription(stripHTML(item.Description))
	return rfp.Opportunity{
		Title:       title,
		Agency:      agency,
		Deadline:    extractDeadline(description),
		Value:       rfp.ValueNotSpecified,
		Contact:     rfp.ContactSeePosting,
		URL:         link,
		Description: description,
		Keywords:    source.ExtractKeywords(title + " " + description),
	}, true
}

// extractDeadline looks for a "deadline:" or "closing date:" label inside
// the item text. Feeds rarely carry structured deadlines, so absence is the
// normal case and yields the TBD sentinel.
func extractDeadline(text string) string {
	lower := strings.ToLower(text)
	for _, label := range []string{"deadline:", "closing date:", "due date:", "responses due:"} {
		idx := strings.Index(lower, label)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(label):]
		if end := strings.IndexAny(rest, ".;\n"); end >= 0 {
			rest = rest[:end]
		}
		normalized := source.NormalizeDate(rest)
		if _, err := time.Parse("2006-01-02", normalized); err == nil {
			return normalized
		}
	}
	return rfp.DeadlineTBD
}

func stripHTML(text string) string {
	var b strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	s := b.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	return strings.Join(strings.Fields(s), " ")
}
