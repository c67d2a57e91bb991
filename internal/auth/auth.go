// Package auth implements the mock login: a user is identified by email
// alone and receives a token derived from their id. Nothing verifies the
// token afterwards.
package auth

import (
	"errors"

	"shop-api/internal/models"
	"shop-api/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenPrefix = "dummy-token-"

type UserFinder interface {
	FindFirst(c store.Collection, field, value string) (models.Record, error)
}

type Service struct {
	users UserFinder
}

func NewService(users UserFinder) *Service {
	return &Service{users: users}
}

// Login returns the token and record of the first user whose email matches.
// A non-string email never matches.
func (s *Service) Login(email any) (*models.LoginResponse, error) {
	addr, ok := email.(string)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindFirst(store.Users, "email", addr)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token: Token(user.ID()),
		User:  user,
	}, nil
}

func Token(userID string) string {
	return tokenPrefix + userID
}
