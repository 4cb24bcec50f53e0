package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/spicefactory/backend-dine/internal/session"
)

// User is one table session. The ID is the opaque token the order core
// requires; there are no credentials behind it.
type User struct {
	ID          string    `bson:"_id,omitempty" json:"userId"`
	Name        string    `bson:"name" json:"name"`
	Contact     string    `bson:"contact" json:"contact"`
	TableNumber int       `bson:"table_number" json:"tableNumber"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

// LoginInput captures the payload for starting a table session.
type LoginInput struct {
	Name        string `json:"name" validate:"required"`
	Contact     string `json:"contact" validate:"required"`
	TableNumber int    `json:"tableNumber" validate:"gt=0"`
}

// Repo persists table-session users.
type Repo interface {
	Insert(ctx context.Context, u User) (User, error)
}

// Service creates and tears down table sessions.
type Service struct {
	Repo      Repo
	Sessions  session.Store
	Validator *validator.Validate
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login creates a user record and an empty session for it.
func (s *Service) Login(ctx context.Context, in LoginInput) (User, error) {
	if s == nil || s.Repo == nil || s.Sessions == nil {
		return User{}, errors.New("user service not configured")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Contact = strings.TrimSpace(in.Contact)
	if s.Validator != nil {
		if err := s.Validator.Struct(in); err != nil {
			return User{}, fmt.Errorf("validate login: %w", err)
		}
	}
	u, err := s.Repo.Insert(ctx, User{
		Name:        in.Name,
		Contact:     in.Contact,
		TableNumber: in.TableNumber,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return User{}, err
	}
	if err := s.Sessions.Save(ctx, session.UserKey(u.ID), u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Logout drops the session: cart, bill, phase and user record snapshot.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if s == nil || s.Sessions == nil {
		return errors.New("user service not configured")
	}
	return s.Sessions.Delete(ctx,
		session.CartKey(userID),
		session.BillKey(userID),
		session.PhaseKey(userID),
		session.UserKey(userID),
	)
}

// Lookup loads the session snapshot for a user id, reporting whether the
// session is live.
func (s *Service) Lookup(ctx context.Context, userID string) (User, bool, error) {
	if s == nil || s.Sessions == nil {
		return User{}, false, errors.New("user service not configured")
	}
	var u User
	found, err := s.Sessions.Load(ctx, session.UserKey(userID), &u)
	if err != nil {
		return User{}, false, err
	}
	return u, found, nil
}
