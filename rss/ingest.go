// Package rss ingests configured feeds, deduplicates items against the
// persisted download history and queues new items on the download client.
package rss

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"qbt-janitor/config"
)

// Downloader submits one download URL to the client.
type Downloader interface {
	AddTorrent(ctx context.Context, url, category string) error
}

// Ingester reads feeds and queues items that were never submitted before. A
// link enters the history only after the client accepted it; the history is
// persisted once, after all feeds, so partially ingested runs are re-tried
// rather than half-remembered.
type Ingester struct {
	parser  *gofeed.Parser
	client  Downloader
	history *History
	logger  zerolog.Logger
	dryRun  bool
}

// NewIngester creates an ingester over the given client and ledger.
func NewIngester(client Downloader, history *History, logger zerolog.Logger) *Ingester {
	return &Ingester{
		parser:  gofeed.NewParser(),
		client:  client,
		history: history,
		logger:  logger,
	}
}

// SetDryRun makes the ingester narrate submissions without performing them
// or touching the ledger.
func (i *Ingester) SetDryRun(dryRun bool) {
	i.dryRun = dryRun
}

// Run ingests every configured feed. An unreachable or malformed feed is
// reported and skipped; the remaining feeds still run. The ledger is saved
// once at the end.
func (i *Ingester) Run(ctx context.Context, feeds []config.FeedConfig) error {
	if len(feeds) == 0 {
		i.logger.Info().Msg("No RSS feeds to process")
		return nil
	}

	for _, feedCfg := range feeds {
		i.logger.Info().Str("url", feedCfg.URL).Msg("Reading RSS feed")

		feed, err := i.parser.ParseURLWithContext(feedCfg.URL, ctx)
		if err != nil {
			i.logger.Error().Err(err).Str("url", feedCfg.URL).Msg("Failed to read feed")
			continue
		}

		if len(feed.Items) == 0 {
			i.logger.Info().Str("url", feedCfg.URL).Msg("No feed items found")
			continue
		}

		submitted := i.processItems(ctx, feed.Items, feedCfg.Category)
		i.logger.Info().
			Str("url", feedCfg.URL).
			Int("items", len(feed.Items)).
			Int("submitted", submitted).
			Msg("Feed processed")
	}

	if i.dryRun {
		return nil
	}
	if err := i.history.Save(); err != nil {
		return fmt.Errorf("failed to persist download history: %w", err)
	}
	return nil
}

// processItems submits new items from one feed and returns how many the
// client accepted.
func (i *Ingester) processItems(ctx context.Context, items []*gofeed.Item, category string) int {
	submitted := 0
	for _, item := range items {
		link := canonicalLink(item)
		if link == "" {
			i.logger.Warn().Str("title", item.Title).Msg("Feed item has no link, skipping")
			continue
		}

		if i.history.Contains(link) {
			i.logger.Debug().Str("title", item.Title).Msg("Skipping item, downloaded already")
			continue
		}

		if i.dryRun {
			i.logger.Info().Str("title", item.Title).Str("link", link).Msg("Dry run: would queue download")
			continue
		}

		i.logger.Info().Str("title", item.Title).Str("link", link).Msg("Queueing download")

		if err := i.client.AddTorrent(ctx, link, category); err != nil {
			i.logger.Error().Err(err).Str("title", item.Title).Msg("Failed to queue download")
			continue
		}

		i.history.Add(link, item.Title)
		submitted++
	}
	return submitted
}

// canonicalLink picks the item's canonical download link.
func canonicalLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if len(item.Links) > 0 {
		return item.Links[0]
	}
	return ""
}
