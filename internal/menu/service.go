package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
)

// ErrNotFound indicates the requested menu item could not be located.
var ErrNotFound = errors.New("menu item not found")

// Item is one dish on the menu. DisplayID is the human-readable sequential id
// shown in the admin panel; ID is the storage identifier.
type Item struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	DisplayID int64     `bson:"display_id" json:"displayId"`
	Name      string    `bson:"name" json:"name"`
	Price     float64   `bson:"price" json:"price"`
	Category  string    `bson:"category" json:"category"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Input captures the payload for creating or updating a menu item.
type Input struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gt=0"`
	Category string  `json:"category" validate:"required"`
}

// Repo is the persistence collaborator for menu items.
type Repo interface {
	List(ctx context.Context) ([]Item, error)
	Insert(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, id string, in Input) (Item, error)
	Delete(ctx context.Context, id string) error
	NextDisplayID(ctx context.Context) (int64, error)
}

const listCacheKey = "menu:list"

// Service encapsulates menu catalog operations with a read-through cache on
// the full list, invalidated on every write.
type Service struct {
	Repo      Repo
	Cache     *Cache
	Validator *validator.Validate
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) validate(in Input) error {
	if s.Validator == nil {
		return nil
	}
	return s.Validator.Struct(in)
}

// List returns all menu items ordered by display id.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("menu service not configured")
	}
	var cached []Item
	if found, err := s.Cache.GetJSON(ctx, listCacheKey, &cached); err == nil && found {
		return cached, nil
	}
	items, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, listCacheKey, items)
	return items, nil
}

// Create validates the input, assigns the next display id and persists the item.
func (s *Service) Create(ctx context.Context, in Input) (Item, error) {
	if s == nil || s.Repo == nil {
		return Item{}, errors.New("menu service not configured")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := s.validate(in); err != nil {
		return Item{}, fmt.Errorf("validate menu item: %w", err)
	}
	displayID, err := s.Repo.NextDisplayID(ctx)
	if err != nil {
		return Item{}, err
	}
	now := s.now().UTC()
	item, err := s.Repo.Insert(ctx, Item{
		DisplayID: displayID,
		Name:      in.Name,
		Price:     in.Price,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Item{}, err
	}
	s.Cache.Invalidate(ctx, listCacheKey)
	return item, nil
}

// Update validates the input and replaces the mutable fields of the item.
func (s *Service) Update(ctx context.Context, id string, in Input) (Item, error) {
	if s == nil || s.Repo == nil {
		return Item{}, errors.New("menu service not configured")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := s.validate(in); err != nil {
		return Item{}, fmt.Errorf("validate menu item: %w", err)
	}
	item, err := s.Repo.Update(ctx, id, in)
	if err != nil {
		return Item{}, err
	}
	s.Cache.Invalidate(ctx, listCacheKey)
	return item, nil
}

// Delete removes a menu item.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.Repo == nil {
		return errors.New("menu service not configured")
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, listCacheKey)
	return nil
}
