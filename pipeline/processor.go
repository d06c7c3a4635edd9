// Package pipeline orchestrates the two-stage content pipeline: a
// submitted URL is fetched and reduced to plain text, then summarized,
// with the item store updated at every transition.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/readinglist"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxExtractedRunes bounds the text stored for a fetched page.
const maxExtractedRunes = 10000

// Processor drives submitted URLs through the content pipeline.
// Submissions run concurrently with one another, each with its own
// cancellation signal; within a submission the two stages are strictly
// sequential.
type Processor struct {
	Fetcher    readinglist.Fetcher
	Extractor  readinglist.Extractor
	Summarizer readinglist.Summarizer
	Items      readinglist.ItemService
	Logger     zerolog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	group   errgroup.Group
}

// Submit validates and registers a URL, then processes it in the
// background. Validation and duplicate errors are returned
// synchronously and create no item; every later failure is reported
// only through the item's status. The returned item is pending.
func (p *Processor) Submit(ctx context.Context, rawURL string) (*readinglist.Item, error) {
	if err := readinglist.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	// CreateItem enforces URL uniqueness atomically; there is no
	// separate duplicate check to race against.
	item := &readinglist.Item{URL: rawURL}
	if err := p.Items.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	// The submission outlives the caller's request context. Each
	// submission gets its own cancel, keyed by item id.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.mu.Lock()
	if p.cancels == nil {
		p.cancels = make(map[string]context.CancelFunc)
	}
	p.cancels[item.ID] = cancel
	p.mu.Unlock()

	p.group.Go(func() error {
		defer p.release(item.ID)
		p.process(runCtx, item)
		return nil
	})

	return item, nil
}

// Cancel aborts the in-flight submission for the given item id.
// Returns false if no submission is in flight. Cancellation takes
// effect at the next suspension point; the item is then removed from
// the store as if it had never been submitted.
func (p *Processor) Cancel(id string) bool {
	p.mu.Lock()
	cancel, ok := p.cancels[id]
	p.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// Remove cancels any in-flight submission for the item and deletes it
// from the store. Returns ENOTFOUND if the item does not exist.
func (p *Processor) Remove(ctx context.Context, id string) error {
	cancelled := p.Cancel(id)
	if err := p.Items.DeleteItem(ctx, id); err != nil {
		// A cancelled goroutine removes its own item; losing that
		// race is still a successful removal.
		if cancelled && readinglist.ErrorCode(err) == readinglist.ENOTFOUND {
			return nil
		}
		return err
	}
	return nil
}

// Clear cancels all in-flight submissions and deletes every item.
func (p *Processor) Clear(ctx context.Context) error {
	p.mu.Lock()
	for _, cancel := range p.cancels {
		cancel()
	}
	p.mu.Unlock()

	return p.Items.DeleteAllItems(ctx)
}

// Wait blocks until all in-flight submissions have finished.
func (p *Processor) Wait() {
	_ = p.group.Wait()
}

// process runs the pipeline for one item and records the outcome.
// Store updates use a detached context: a cancelled submission must
// still be able to clean up after itself.
func (p *Processor) process(ctx context.Context, item *readinglist.Item) {
	result, err := p.run(ctx, item)
	storeCtx := context.WithoutCancel(ctx)

	switch {
	case err == nil:
		if err := p.Items.MarkItemSuccess(storeCtx, item.ID, *result); err != nil {
			p.Logger.Error().Err(err).Str("id", item.ID).Msg("failed to record success")
			return
		}
		p.Logger.Info().Str("id", item.ID).Str("url", item.URL).Msg("item processed")

	case errors.Is(err, context.Canceled):
		// Cancellation is not a failure of the item: remove it as if
		// it had never been submitted. The item may already be gone
		// if Remove or Clear deleted it first.
		if err := p.Items.DeleteItem(storeCtx, item.ID); err != nil &&
			readinglist.ErrorCode(err) != readinglist.ENOTFOUND {
			p.Logger.Error().Err(err).Str("id", item.ID).Msg("failed to remove cancelled item")
			return
		}
		p.Logger.Debug().Str("id", item.ID).Str("url", item.URL).Msg("submission cancelled")

	default:
		if err := p.Items.MarkItemError(storeCtx, item.ID, readinglist.ErrorMessage(err)); err != nil &&
			readinglist.ErrorCode(err) != readinglist.ENOTFOUND {
			p.Logger.Error().Err(err).Str("id", item.ID).Msg("failed to record error")
			return
		}
		p.Logger.Warn().Str("id", item.ID).Str("url", item.URL).
			Str("error", readinglist.ErrorMessage(err)).Msg("item failed")
	}
}

// run executes the two stages in sequence. Stage two never begins
// before stage one completes; there is no retry at either stage.
func (p *Processor) run(ctx context.Context, item *readinglist.Item) (*readinglist.ItemResult, error) {
	html, err := p.Fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return nil, err
	}

	text := truncateRunes(p.Extractor.Extract(html), maxExtractedRunes)
	if strings.TrimSpace(text) == "" {
		return nil, readinglist.Errorf(readinglist.EINVALID, "No readable content found")
	}

	summarized, err := p.Summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}

	return &readinglist.ItemResult{
		ExtractedText: text,
		Summary:       summarized.Summary,
		Topics:        summarized.Topics,
		ContentHash:   computeHash(text),
	}, nil
}

// release discards the cancel registered for an item once its
// submission has finished.
func (p *Processor) release(id string) {
	p.mu.Lock()
	if cancel, ok := p.cancels[id]; ok {
		cancel()
		delete(p.cancels, id)
	}
	p.mu.Unlock()
}

// computeHash computes a hash of the content using xxhash.
func computeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}

// truncateRunes truncates s to at most n runes without splitting a
// UTF-8 sequence.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
