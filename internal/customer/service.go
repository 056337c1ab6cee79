// Package customer keeps the shop-side profile of signed-in users: contact
// details and delivery addresses keyed by the access token subject.
package customer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/google/uuid"
)

var (
	ErrValidation = errors.New("validation")   // 400
	ErrNotFound   = errors.New("not found")    // 404
	ErrEmailTaken = errors.New("email in use") // 409
)

type Service struct {
	Repo *GormRepo
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	return s.Repo.Get(ctx, userID)
}

func tooLong(field, v string, max int) error {
	if utf8.RuneCountInString(v) > max {
		return fmt.Errorf("%s longer than %d characters: %w", field, max, ErrValidation)
	}
	return nil
}

func validPhone(p string) bool {
	digits := 0
	for _, r := range p {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+', r == '-', r == ' ':
		default:
			return false
		}
	}
	return digits >= 7
}

// SaveProfile creates or replaces the user's own profile.
func (s *Service) SaveProfile(ctx context.Context, userID uuid.UUID, req transport.ProfileRequest) (*models.Customer, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required: %w", ErrValidation)
	}
	c := &models.Customer{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		Address1: strings.TrimSpace(req.Address1),
		Address2: strings.TrimSpace(req.Address2),
		Note:     strings.TrimSpace(req.Note),
	}

	if c.Name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		return nil, fmt.Errorf("email %q is not valid: %w", req.Email, ErrValidation)
	}
	if c.Phone != "" && !validPhone(c.Phone) {
		return nil, fmt.Errorf("phone %q is not valid: %w", c.Phone, ErrValidation)
	}
	for _, f := range []struct {
		name, v string
		max     int
	}{
		{"name", c.Name, 100},
		{"email", c.Email, 120},
		{"phone", c.Phone, 20},
		{"address1", c.Address1, 200},
		{"address2", c.Address2, 200},
	} {
		if err := tooLong(f.name, f.v, f.max); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.Save(ctx, c); err != nil {
		if db.IsConflict(err) {
			return nil, fmt.Errorf("email %s: %w", c.Email, ErrEmailTaken)
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, offset, limit int) (int64, []Summary, error) {
	return s.Repo.List(ctx, offset, limit)
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	c, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	st, err := s.Repo.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Summary{Customer: *c, Stats: st}, nil
}
