package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/readinglist"
	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
)

// Compile-time interface verification.
var _ readinglist.ItemService = (*ItemService)(nil)

// ItemService implements readinglist.ItemService using SQLite.
type ItemService struct {
	db *DB
}

// NewItemService creates a new ItemService.
func NewItemService(db *DB) *ItemService {
	return &ItemService{db: db}
}

// CreateItem creates a new pending item. The insert itself enforces
// URL uniqueness, so concurrent submissions for the same URL cannot
// both pass a separate duplicate check.
func (s *ItemService) CreateItem(ctx context.Context, item *readinglist.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	item.ID = uuid.New().String()
	item.Title = readinglist.TitleFromURL(item.URL)
	item.Status = readinglist.StatusPending
	item.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, url, title, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, item.ID, item.URL, item.Title, string(item.Status), item.CreatedAt.Format(time.RFC3339))

	if errors.Is(err, sqlite3.CONSTRAINT_UNIQUE) {
		return readinglist.Errorf(readinglist.ECONFLICT, "URL already in reading list")
	}
	return err
}

// FindItemByID retrieves an item by ID.
func (s *ItemService) FindItemByID(ctx context.Context, id string) (*readinglist.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, title, extracted_text, summary, topics, content_hash, status, error_message, created_at
		FROM items
		WHERE id = ?
	`, id)

	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, readinglist.Errorf(readinglist.ENOTFOUND, "item not found")
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// FindItems retrieves items matching the filter, newest first.
func (s *ItemService) FindItems(ctx context.Context, filter readinglist.ItemFilter) ([]*readinglist.Item, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, url, title, extracted_text, summary, topics, content_hash, status, error_message, created_at FROM items WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	// rowid preserves insertion order exactly; created_at has
	// second-level collisions.
	query.WriteString(" ORDER BY rowid DESC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*readinglist.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkItemSuccess transitions a pending item to success, populating
// its result fields.
func (s *ItemService) MarkItemSuccess(ctx context.Context, id string, result readinglist.ItemResult) error {
	topics := result.Topics
	if topics == nil {
		topics = []string{}
	}
	encoded, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET status = ?, extracted_text = ?, summary = ?, topics = ?, content_hash = ?
		WHERE id = ? AND status = ?
	`, string(readinglist.StatusSuccess), result.ExtractedText, result.Summary, string(encoded),
		result.ContentHash, id, string(readinglist.StatusPending))
	if err != nil {
		return err
	}
	return s.checkTransition(ctx, res, id)
}

// MarkItemError transitions a pending item to error, setting its
// error message.
func (s *ItemService) MarkItemError(ctx context.Context, id string, message string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET status = ?, error_message = ?
		WHERE id = ? AND status = ?
	`, string(readinglist.StatusError), message, id, string(readinglist.StatusPending))
	if err != nil {
		return err
	}
	return s.checkTransition(ctx, res, id)
}

// DeleteItem permanently removes an item regardless of status.
func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return readinglist.Errorf(readinglist.ENOTFOUND, "item not found")
	}
	return nil
}

// DeleteAllItems removes all items.
func (s *ItemService) DeleteAllItems(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items`)
	return err
}

// checkTransition reports the reason a guarded status update matched
// no row: the item is gone, or it already reached a terminal state.
func (s *ItemService) checkTransition(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := s.FindItemByID(ctx, id); err != nil {
		return err
	}
	return readinglist.Errorf(readinglist.ECONFLICT, "item is not pending")
}

// scanItem scans one items row using the given scan function.
func scanItem(scan func(dest ...any) error) (*readinglist.Item, error) {
	var item readinglist.Item
	var topics, status, createdAt string

	if err := scan(&item.ID, &item.URL, &item.Title, &item.ExtractedText, &item.Summary,
		&topics, &item.ContentHash, &status, &item.ErrorMessage, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(topics), &item.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}
	item.Status = readinglist.Status(status)

	var err error
	item.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &item, nil
}
