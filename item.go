package readinglist

import (
	"context"
	"net/url"
	"time"
)

// Status represents an item's position in its lifecycle.
type Status string

// Item lifecycle states. Success and error are terminal: an item in
// either state is never mutated again, only removed.
const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Item represents one submitted URL's tracked processing record.
type Item struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`

	// Populated after a successful fetch and extraction.
	ExtractedText string `json:"extractedText,omitempty"`

	// Populated after successful summarization.
	Summary     string   `json:"summary,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	ContentHash string   `json:"contentHash,omitempty"`

	Status       Status `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Validate returns an error if the item contains invalid fields.
func (i *Item) Validate() error {
	if i.URL == "" {
		return Errorf(EINVALID, "item URL required")
	}
	return nil
}

// ValidateURL returns an error unless rawURL parses as a well-formed
// absolute URL with a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Errorf(EINVALID, "Invalid URL format")
	}
	return nil
}

// TitleFromURL derives an item's display label from the URL's host.
// The title is set once at creation and never recomputed. Falls back
// to the raw input if it does not parse.
func TitleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// ItemResult holds the outputs of a completed pipeline run for an item.
type ItemResult struct {
	ExtractedText string
	Summary       string
	Topics        []string
	ContentHash   string
}

// ItemService represents a service for managing reading-list items.
// It owns the authoritative collection and all mutation of item state:
// an item is created pending, moves to exactly one terminal status, or
// is deleted outright (the cancellation path). Mutations are atomic
// with respect to a single id.
type ItemService interface {
	// CreateItem creates a new pending item for item.URL, assigning
	// its id, title, and creation time. Insertion is the sole
	// enforcement point for URL uniqueness: returns ECONFLICT if an
	// item with the same URL already exists, regardless of its status.
	CreateItem(ctx context.Context, item *Item) error

	// FindItemByID retrieves an item by ID.
	// Returns ENOTFOUND if the item does not exist.
	FindItemByID(ctx context.Context, id string) (*Item, error)

	// FindItems retrieves items matching the filter, newest first.
	FindItems(ctx context.Context, filter ItemFilter) ([]*Item, error)

	// MarkItemSuccess transitions a pending item to success,
	// populating its result fields. Returns ENOTFOUND if the item
	// does not exist and ECONFLICT if it is no longer pending.
	MarkItemSuccess(ctx context.Context, id string, result ItemResult) error

	// MarkItemError transitions a pending item to error, setting its
	// error message. Returns ENOTFOUND if the item does not exist and
	// ECONFLICT if it is no longer pending.
	MarkItemError(ctx context.Context, id string, message string) error

	// DeleteItem permanently removes an item regardless of status.
	// Returns ENOTFOUND if the item does not exist.
	DeleteItem(ctx context.Context, id string) error

	// DeleteAllItems removes all items.
	DeleteAllItems(ctx context.Context) error
}

// ItemFilter represents a filter for FindItems.
type ItemFilter struct {
	ID     *string `json:"id"`
	URL    *string `json:"url"`
	Status *Status `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
