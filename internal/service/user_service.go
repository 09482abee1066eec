package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsandell/postline/internal/models"
	"github.com/jsandell/postline/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	if !isExist {
		slog.Info("user not found", "user_id", id)
		return nil, fmt.Errorf("user %d not found", id)
	}

	return user, nil
}
