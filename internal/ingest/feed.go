package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

// FeedPrefix marks entries imported from a feed.
const FeedPrefix = "feed:"

// ImportFeed turns each item of an RSS or Atom journal feed into an entry
// with ID "feed:<guid>". Re-importing a feed updates entries in place.
func (im *Importer) ImportFeed(ctx context.Context, feedURL string) (*Result, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}
	return im.storeFeed(ctx, feed)
}

// ImportFeedString is ImportFeed for a feed document already in hand.
func (im *Importer) ImportFeedString(ctx context.Context, doc string) (*Result, error) {
	feed, err := gofeed.NewParser().ParseString(doc)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return im.storeFeed(ctx, feed)
}

func (im *Importer) storeFeed(ctx context.Context, feed *gofeed.Feed) (*Result, error) {
	var entries []journal.Entry
	for _, item := range feed.Items {
		if e := parseItem(item, im.now()); e != nil {
			entries = append(entries, *e)
		}
	}
	res, err := im.Store(ctx, entries)
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("Parsed %d entries from %s (%d new)", res.Found, feedName(feed), res.New)
	return res, nil
}

func parseItem(item *gofeed.Item, now time.Time) *journal.Entry {
	id := item.GUID
	if id == "" {
		id = item.Link
	}
	if id == "" {
		return nil
	}

	var body string
	if item.Content != "" {
		body = stripHTML(item.Content)
	} else if item.Description != "" {
		body = stripHTML(item.Description)
	}
	title := strings.TrimSpace(item.Title)

	var text string
	switch {
	case title != "" && body != "" && !strings.HasPrefix(body, title):
		text = title + ". " + body
	case body != "":
		text = body
	default:
		text = title
	}
	if text == "" {
		return nil
	}

	created := now
	if item.PublishedParsed != nil {
		created = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		created = *item.UpdatedParsed
	}

	return &journal.Entry{ID: FeedPrefix + id, Text: text, CreatedAt: created.Local()}
}

func feedName(feed *gofeed.Feed) string {
	if t := strings.TrimSpace(feed.Title); t != "" {
		return t
	}
	return "feed"
}

// blockTags end a run of text; a space is inserted after each so words
// from adjacent blocks don't run together.
const blockTags = "p, div, br, li, h1, h2, h3, h4, h5, h6, blockquote, tr, td"

func stripHTML(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return strings.Join(strings.Fields(text), " ")
	}
	for _, n := range doc.Find(blockTags).Nodes {
		if n.Parent != nil {
			n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: " "}, n.NextSibling)
		}
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
