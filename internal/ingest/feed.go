package ingest

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
	"github.com/TobiSchelling/FeedbackLens/internal/logger"
)

// DefaultMaxPerFeed caps the items taken from one feed per import.
const DefaultMaxPerFeed = 50

// FeedSource is one configured review feed.
type FeedSource struct {
	URL       string `yaml:"url"`
	Name      string `yaml:"name"`
	ProductID string `yaml:"product_id"`
}

// FeedImporter pulls reviews from RSS/Atom feeds.
type FeedImporter struct {
	feeds      []FeedSource
	parser     *gofeed.Parser
	fetcher    TextFetcher
	maxPerFeed int
	log        logger.Logger
}

// NewFeedImporter creates a feed importer. fetcher may be nil, in which
// case items without inline text fall back to their title.
func NewFeedImporter(feeds []FeedSource, fetcher TextFetcher, maxPerFeed int, log logger.Logger) *FeedImporter {
	if maxPerFeed <= 0 {
		maxPerFeed = DefaultMaxPerFeed
	}
	if log == nil {
		log = logger.NewNop()
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &FeedImporter{
		feeds:      feeds,
		parser:     parser,
		fetcher:    fetcher,
		maxPerFeed: maxPerFeed,
		log:        log,
	}
}

// Import parses every feed and stores new items. A feed that fails to parse
// is logged and skipped.
func (fi *FeedImporter) Import(ctx context.Context, store Store) (*Result, error) {
	res := &Result{}
	var items []feedback.Item
	for _, src := range fi.feeds {
		feedItems, err := fi.parse(ctx, src)
		if err != nil {
			fi.log.Warn("Failed to parse feed", logger.String("url", src.URL), logger.Error(err))
			continue
		}
		fi.log.Info("Parsed feed", logger.String("url", src.URL), logger.Int("items", len(feedItems)))
		items = append(items, feedItems...)
	}
	res.Read = len(items)
	if err := res.Save(store, items); err != nil {
		return nil, err
	}
	return res, nil
}

func (fi *FeedImporter) parse(ctx context.Context, src FeedSource) ([]feedback.Item, error) {
	feed, err := fi.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, err
	}

	var items []feedback.Item
	for _, entry := range feed.Items {
		if len(items) >= fi.maxPerFeed {
			break
		}
		if item := fi.toItem(ctx, src, entry); item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (fi *FeedImporter) toItem(ctx context.Context, src FeedSource, entry *gofeed.Item) *feedback.Item {
	ref := entry.GUID
	if ref == "" {
		ref = entry.Link
	}
	if ref == "" {
		return nil
	}

	text := stripHTML(entry.Content)
	if text == "" {
		text = stripHTML(entry.Description)
	}
	if text == "" && entry.Link != "" && fi.fetcher != nil {
		fetched, err := fi.fetcher.FetchText(ctx, entry.Link)
		if err != nil {
			fi.log.Debug("Fetching linked page failed", logger.String("url", entry.Link), logger.Error(err))
		}
		text = fetched
	}
	if text == "" {
		text = strings.TrimSpace(entry.Title)
	}
	if text == "" {
		return nil
	}

	externalRef := "feed:" + ref
	channel := "feed"
	item := &feedback.Item{
		Text:        &text,
		ExternalRef: &externalRef,
		Channel:     &channel,
	}
	if src.ProductID != "" {
		product := src.ProductID
		item.ProductID = &product
	}
	if len(entry.Authors) > 0 && entry.Authors[0] != nil && entry.Authors[0].Name != "" {
		author := entry.Authors[0].Name
		item.CustomerID = &author
	}
	if t := entry.PublishedParsed; t != nil {
		date := t.Format("2006-01-02")
		item.FeedbackDate = &date
	} else if t := entry.UpdatedParsed; t != nil {
		date := t.Format("2006-01-02")
		item.FeedbackDate = &date
	}
	return item
}

func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("br, p, div, li").AfterHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " ")
}
