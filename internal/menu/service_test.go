package menu_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	validator "github.com/go-playground/validator/v10"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/spicefactory/backend-dine/internal/menu"
)

type fakeRepo struct {
	mu        sync.Mutex
	items     []menu.Item
	seq       int64
	listCalls int
}

func (f *fakeRepo) List(_ context.Context) ([]menu.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]menu.Item(nil), f.items...), nil
}

func (f *fakeRepo) Insert(_ context.Context, item menu.Item) (menu.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = item.Name
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeRepo) Update(_ context.Context, id string, in menu.Input) (menu.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Name = in.Name
			f.items[i].Price = in.Price
			f.items[i].Category = in.Category
			return f.items[i], nil
		}
	}
	return menu.Item{}, menu.ErrNotFound
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return menu.ErrNotFound
}

func (f *fakeRepo) NextDisplayID(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq, nil
}

func newMenuService(t *testing.T) (*menu.Service, *fakeRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := &fakeRepo{}
	svc := &menu.Service{
		Repo:      repo,
		Cache:     menu.NewCache(client, time.Minute),
		Validator: validator.New(),
	}
	return svc, repo
}

func TestCreateAssignsSequentialDisplayIDs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMenuService(t)

	first, err := svc.Create(ctx, menu.Input{Name: "Dosa", Price: 120, Category: "south-indian"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, menu.Input{Name: "Idli", Price: 60, Category: "south-indian"})
	require.NoError(t, err)

	require.Equal(t, int64(1), first.DisplayID)
	require.Equal(t, int64(2), second.DisplayID)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMenuService(t)

	cases := []menu.Input{
		{Price: 10, Category: "snacks"},
		{Name: "Vada", Category: "snacks"},
		{Name: "Vada", Price: -5, Category: "snacks"},
		{Name: "Vada", Price: 10},
	}
	for _, in := range cases {
		_, err := svc.Create(ctx, in)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("input %+v: expected validation errors, got %v", in, err)
		}
	}
}

func TestListServesFromCacheUntilWrite(t *testing.T) {
	ctx := context.Background()
	svc, repo := newMenuService(t)

	_, err := svc.Create(ctx, menu.Input{Name: "Dosa", Price: 120, Category: "south-indian"})
	require.NoError(t, err)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls, "second read must hit the cache")

	_, err = svc.Create(ctx, menu.Input{Name: "Idli", Price: 60, Category: "south-indian"})
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.listCalls, "write must invalidate the cache")
	require.Len(t, items, 2)
}

func TestUpdateUnknownItem(t *testing.T) {
	svc, _ := newMenuService(t)
	_, err := svc.Update(context.Background(), "nope", menu.Input{Name: "X", Price: 1, Category: "c"})
	require.ErrorIs(t, err, menu.ErrNotFound)
}

func TestDeleteRemovesItem(t *testing.T) {
	ctx := context.Background()
	svc, repo := newMenuService(t)

	item, err := svc.Create(ctx, menu.Input{Name: "Dosa", Price: 120, Category: "south-indian"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, item.ID))
	require.Empty(t, repo.items)

	require.ErrorIs(t, svc.Delete(ctx, item.ID), menu.ErrNotFound)
}
