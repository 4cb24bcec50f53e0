package user_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/spicefactory/backend-dine/internal/cart"
	"github.com/spicefactory/backend-dine/internal/session"
	"github.com/spicefactory/backend-dine/internal/user"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users []user.User
}

func (f *fakeUserRepo) Insert(_ context.Context, u user.User) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	u.ID = "user-" + string(rune('0'+f.seq))
	f.users = append(f.users, u)
	return u, nil
}

func newUserService() (*user.Service, session.Store) {
	store := session.NewMemoryStore()
	svc := &user.Service{
		Repo:      &fakeUserRepo{},
		Sessions:  store,
		Validator: validator.New(),
	}
	return svc, store
}

func TestLoginCreatesSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService()

	u, err := svc.Login(ctx, user.LoginInput{Name: "Asha", Contact: "9876543210", TableNumber: 4})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, 4, u.TableNumber)

	got, found, err := svc.Lookup(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Asha", got.Name)
}

func TestLoginValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService()

	cases := []user.LoginInput{
		{Contact: "123", TableNumber: 1},
		{Name: "Asha", TableNumber: 1},
		{Name: "Asha", Contact: "123", TableNumber: 0},
		{Name: "  ", Contact: "123", TableNumber: 1},
	}
	for _, in := range cases {
		_, err := svc.Login(ctx, in)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("input %+v: expected validation errors, got %v", in, err)
		}
	}
}

func TestLogoutDiscardsCartBillAndSession(t *testing.T) {
	ctx := context.Background()
	svc, store := newUserService()

	u, err := svc.Login(ctx, user.LoginInput{Name: "Asha", Contact: "123", TableNumber: 2})
	require.NoError(t, err)

	tracker := &session.Tracker{Store: store}
	carts := &cart.Service{Sessions: store, Tracker: tracker}
	_, err = carts.AddItem(ctx, u.ID, cart.Item{ItemID: "m1", UnitPrice: 50})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID))

	_, found, err := svc.Lookup(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, found)

	c, err := carts.Get(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	phase, err := tracker.Current(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, session.PhaseIdle, phase)
}
