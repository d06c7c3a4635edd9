package mock

import (
	"context"

	"github.com/fwojciec/readinglist"
)

var _ readinglist.ItemService = (*ItemService)(nil)

type ItemService struct {
	CreateItemFn      func(ctx context.Context, item *readinglist.Item) error
	FindItemByIDFn    func(ctx context.Context, id string) (*readinglist.Item, error)
	FindItemsFn       func(ctx context.Context, filter readinglist.ItemFilter) ([]*readinglist.Item, error)
	MarkItemSuccessFn func(ctx context.Context, id string, result readinglist.ItemResult) error
	MarkItemErrorFn   func(ctx context.Context, id string, message string) error
	DeleteItemFn      func(ctx context.Context, id string) error
	DeleteAllItemsFn  func(ctx context.Context) error
}

func (m *ItemService) CreateItem(ctx context.Context, item *readinglist.Item) error {
	return m.CreateItemFn(ctx, item)
}

func (m *ItemService) FindItemByID(ctx context.Context, id string) (*readinglist.Item, error) {
	return m.FindItemByIDFn(ctx, id)
}

func (m *ItemService) FindItems(ctx context.Context, filter readinglist.ItemFilter) ([]*readinglist.Item, error) {
	return m.FindItemsFn(ctx, filter)
}

func (m *ItemService) MarkItemSuccess(ctx context.Context, id string, result readinglist.ItemResult) error {
	return m.MarkItemSuccessFn(ctx, id, result)
}

func (m *ItemService) MarkItemError(ctx context.Context, id string, message string) error {
	return m.MarkItemErrorFn(ctx, id, message)
}

func (m *ItemService) DeleteItem(ctx context.Context, id string) error {
	return m.DeleteItemFn(ctx, id)
}

func (m *ItemService) DeleteAllItems(ctx context.Context) error {
	return m.DeleteAllItemsFn(ctx)
}
