// Package ledger applies stock movements to items. Every mutation runs
// in one unit of work together with the Log row that records it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"inventory/m/domain"
	"inventory/m/internal/logging"
	"inventory/m/internal/media"
	"inventory/m/internal/repository"
)

// Swap directions.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// Shortfall messages. A sale asks for a restock; movements between
// stores use the same text as the repository guard.
const (
	msgSellShortfall = "Insufficient quantity. Kindly restock."
	msgShortfall     = "Insufficient quantity"
)

// ImageUploader stores an item image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, img media.Image) (string, error)
}

type Service struct {
	repos  repository.Manager
	images ImageUploader
	logger logging.Logger
}

// NewService builds the ledger. images may be nil, in which case item
// creation with an image fails validation.
func NewService(repos repository.Manager, images ImageUploader, logger logging.Logger) *Service {
	return &Service{repos: repos, images: images, logger: logger}
}

// CreateItemInput carries the raw form values of a new item. Price and
// Quantity arrive as text from JSON or multipart bodies.
type CreateItemInput struct {
	Name       string
	Price      string
	Quantity   string
	CategoryID string
	StoreID    string
	Image      *media.Image
}

type SwapInput struct {
	ItemID      string
	Quantity    int
	FromStoreID string
	ToStoreID   string
	Direction   string
}

type TransferInput struct {
	ItemID   string
	ToItemID string
	Quantity int
}

// Transfer is the outcome of a paired outgoing and incoming movement.
type Transfer struct {
	Source      *domain.Item `json:"source"`
	Destination *domain.Item `json:"destination"`
	Outgoing    *domain.Log  `json:"outgoing"`
	Incoming    *domain.Log  `json:"incoming"`
}

func (s *Service) CreateItem(ctx context.Context, actor *domain.User, in CreateItemInput) (*domain.Item, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Unauthorized to create item")
	}

	name := strings.TrimSpace(in.Name)
	categoryID := strings.TrimSpace(in.CategoryID)
	storeID := strings.TrimSpace(in.StoreID)
	if name == "" || categoryID == "" || storeID == "" || strings.TrimSpace(in.Price) == "" || strings.TrimSpace(in.Quantity) == "" {
		return nil, domain.Validation("All fields are required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(in.Price), 64)
	if err != nil || price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return nil, domain.Validation("Price must be a positive number")
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(in.Quantity))
	if err != nil || quantity <= 0 {
		return nil, domain.Validation("Quantity must be a positive whole number")
	}

	r := s.repos.Repos()
	if _, err := r.Stores.Get(ctx, storeID); err != nil {
		return nil, notFoundAs(err, "Store not found")
	}
	category, err := r.Categories.Get(ctx, categoryID)
	if err != nil {
		return nil, notFoundAs(err, "Category not found")
	}
	if category.StoreID != storeID {
		return nil, domain.Validation("Category does not belong to the store")
	}

	var imageURL *string
	if in.Image != nil {
		if s.images == nil {
			return nil, domain.Validation("Image uploads are not configured")
		}
		url, err := s.images.Upload(ctx, *in.Image)
		if err != nil {
			return nil, fmt.Errorf("store item image: %w", err)
		}
		imageURL = &url
	}

	var item *domain.Item
	err = s.repos.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		var err error
		item, err = r.Items.Create(ctx, &domain.Item{
			Name:       name,
			Price:      price,
			Quantity:   quantity,
			CategoryID: categoryID,
			StoreID:    storeID,
			ImageURL:   imageURL,
		})
		if err != nil {
			return err
		}
		_, err = r.Logs.Create(ctx, &domain.Log{
			Action:   domain.ActionPurchase,
			Details:  "Created item: " + item.Name,
			ItemID:   item.ID,
			StoreID:  item.StoreID,
			Quantity: item.Quantity,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "item created", "item_id", item.ID, "store_id", item.StoreID, "user_id", actor.ID)
	return item, nil
}

// UpdateItemQuantity sets the stock level of an item to quantity.
func (s *Service) UpdateItemQuantity(ctx context.Context, actor *domain.User, itemID string, quantity int) (*domain.Item, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Unauthorized")
	}
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.Validation("All fields are required")
	}
	if quantity < 0 {
		return nil, domain.Validation("Quantity cannot be negative")
	}

	var updated *domain.Item
	err := s.repos.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		item, err := r.Items.Get(ctx, itemID)
		if err != nil {
			return notFoundAs(err, "Item not found")
		}
		if updated, err = r.Items.SetQuantity(ctx, item.ID, quantity); err != nil {
			return err
		}
		_, err = r.Logs.Create(ctx, &domain.Log{
			Action:   domain.ActionUpdate,
			Details:  "Updated quantity of item: " + item.Name,
			ItemID:   item.ID,
			StoreID:  item.StoreID,
			Quantity: quantity,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "item quantity set", "item_id", updated.ID, "quantity", updated.Quantity, "user_id", actor.ID)
	return updated, nil
}

// SellItem removes quantity units from stock. purchaser is optional.
func (s *Service) SellItem(ctx context.Context, actor *domain.User, itemID string, quantity int, purchaser string) (*domain.Item, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Unauthorized")
	}
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.Validation("All fields are required")
	}
	if quantity <= 0 {
		return nil, domain.Validation("Quantity must be greater than zero")
	}
	purchaser = strings.TrimSpace(purchaser)

	var updated *domain.Item
	err := s.repos.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		item, err := r.Items.Get(ctx, itemID)
		if err != nil {
			return notFoundAs(err, "Item not found")
		}
		if item.Quantity < quantity {
			return domain.InsufficientStock(msgSellShortfall)
		}
		if updated, err = r.Items.AdjustQuantity(ctx, item.ID, -quantity); err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return domain.InsufficientStock(msgSellShortfall)
			}
			return err
		}

		entry := &domain.Log{
			Action:   domain.ActionSell,
			Details:  fmt.Sprintf("Sold %d of %s", quantity, item.Name),
			ItemID:   item.ID,
			StoreID:  item.StoreID,
			Quantity: quantity,
		}
		if purchaser != "" {
			entry.Details += " to " + purchaser
			entry.Purchaser = &purchaser
		}
		_, err = r.Logs.Create(ctx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "item sold", "item_id", updated.ID, "quantity", quantity, "user_id", actor.ID)
	return updated, nil
}

// SwapItem records one leg of a movement between stores. An outgoing
// swap removes stock from an item of the source store. An incoming swap
// adds stock to the item unconditionally.
func (s *Service) SwapItem(ctx context.Context, actor *domain.User, in SwapInput) (*domain.Log, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Unauthorized")
	}
	itemID := strings.TrimSpace(in.ItemID)
	fromStoreID := strings.TrimSpace(in.FromStoreID)
	toStoreID := strings.TrimSpace(in.ToStoreID)
	if itemID == "" || fromStoreID == "" || toStoreID == "" || in.Direction == "" {
		return nil, domain.Validation("All fields are required")
	}

	var entry *domain.Log
	err := s.repos.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		item, err := r.Items.Get(ctx, itemID)
		if err != nil {
			return notFoundAs(err, "Item not found")
		}

		switch in.Direction {
		case DirectionOutgoing:
			if item.StoreID != fromStoreID {
				return domain.Validation("Item does not belong to the store")
			}
			if in.Quantity <= 0 {
				return domain.Validation("Quantity must be greater than zero")
			}
			if item.Quantity < in.Quantity {
				return domain.InsufficientStock(msgShortfall)
			}
			if _, err := r.Items.AdjustQuantity(ctx, item.ID, -in.Quantity); err != nil {
				return err
			}
			entry, err = r.Logs.Create(ctx, outgoingLog(item, in.Quantity, toStoreID))
			return err

		case DirectionIncoming:
			if in.Quantity <= 0 {
				return domain.Validation("Quantity must be greater than zero")
			}
			if _, err := r.Stores.Get(ctx, toStoreID); err != nil {
				return notFoundAs(err, "Store not found")
			}
			if _, err := r.Items.AdjustQuantity(ctx, item.ID, in.Quantity); err != nil {
				return err
			}
			entry, err = r.Logs.Create(ctx, incomingLog(item, in.Quantity, fromStoreID, toStoreID))
			return err

		default:
			return domain.Validation("Invalid direction (must be 'incoming' or 'outgoing')")
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "item swapped", "item_id", itemID, "direction", in.Direction, "quantity", in.Quantity, "user_id", actor.ID)
	return entry, nil
}

// TransferItem moves stock from one item to a counterpart item in
// another store. Both legs and both Log rows commit together or not at
// all.
func (s *Service) TransferItem(ctx context.Context, actor *domain.User, in TransferInput) (*Transfer, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Unauthorized")
	}
	itemID := strings.TrimSpace(in.ItemID)
	toItemID := strings.TrimSpace(in.ToItemID)
	if itemID == "" || toItemID == "" {
		return nil, domain.Validation("All fields are required")
	}
	if itemID == toItemID {
		return nil, domain.Validation("Source and destination items must differ")
	}
	if in.Quantity <= 0 {
		return nil, domain.Validation("Quantity must be greater than zero")
	}

	out := &Transfer{}
	err := s.repos.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		src, err := r.Items.Get(ctx, itemID)
		if err != nil {
			return notFoundAs(err, "Item not found")
		}
		dst, err := r.Items.Get(ctx, toItemID)
		if err != nil {
			return notFoundAs(err, "Destination item not found")
		}
		if src.StoreID == dst.StoreID {
			return domain.Validation("Items belong to the same store")
		}
		if src.Quantity < in.Quantity {
			return domain.InsufficientStock(msgShortfall)
		}

		if out.Source, err = r.Items.AdjustQuantity(ctx, src.ID, -in.Quantity); err != nil {
			return err
		}
		if out.Outgoing, err = r.Logs.Create(ctx, outgoingLog(src, in.Quantity, dst.StoreID)); err != nil {
			return err
		}
		if out.Destination, err = r.Items.AdjustQuantity(ctx, dst.ID, in.Quantity); err != nil {
			return err
		}
		out.Incoming, err = r.Logs.Create(ctx, incomingLog(dst, in.Quantity, src.StoreID, dst.StoreID))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "item transferred", "from_item_id", itemID, "to_item_id", toItemID, "quantity", in.Quantity, "user_id", actor.ID)
	return out, nil
}

// ListItems returns every item across all stores.
func (s *Service) ListItems(ctx context.Context, actor *domain.User) ([]domain.Item, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Unauthorized")
	}
	return s.repos.Repos().Items.List(ctx)
}

// ItemHistory returns the Log rows of one item, newest first.
func (s *Service) ItemHistory(ctx context.Context, actor *domain.User, itemID string) ([]domain.Log, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Unauthorized")
	}
	r := s.repos.Repos()
	if _, err := r.Items.Get(ctx, itemID); err != nil {
		return nil, notFoundAs(err, "Item not found")
	}
	return r.Logs.ListByItem(ctx, itemID)
}

func outgoingLog(item *domain.Item, quantity int, toStoreID string) *domain.Log {
	return &domain.Log{
		Action:    domain.ActionSwapOutgoing,
		Details:   fmt.Sprintf("Transferred %d of %s to store %s", quantity, item.Name, toStoreID),
		ItemID:    item.ID,
		StoreID:   item.StoreID,
		Quantity:  quantity,
		ToStoreID: &toStoreID,
	}
}

func incomingLog(item *domain.Item, quantity int, fromStoreID, toStoreID string) *domain.Log {
	return &domain.Log{
		Action:      domain.ActionSwapIncoming,
		Details:     fmt.Sprintf("Received %d of %s from store %s", quantity, item.Name, fromStoreID),
		ItemID:      item.ID,
		StoreID:     toStoreID,
		Quantity:    quantity,
		FromStoreID: &fromStoreID,
	}
}

// notFoundAs gives a bare ErrNotFound from the repositories a
// client-facing message. Other errors pass through.
func notFoundAs(err error, msg string) error {
	var de *domain.Error
	if errors.Is(err, domain.ErrNotFound) && !errors.As(err, &de) {
		return domain.NotFound(msg)
	}
	return err
}
