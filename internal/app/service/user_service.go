package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
	"creativerse/internal/domain/repository"

	"github.com/rs/zerolog/log"
)

// UserService is the user directory: profiles, roles and verification.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// LoadPrincipal resolves the current role and verification flag of an authenticated user.
func (s *UserService) LoadPrincipal(ctx context.Context, userID string) (model.Principal, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return model.Principal{}, fmt.Errorf("account no longer exists: %w", common.ErrUnauthorized)
		}
		return model.Principal{}, err
	}
	return u.Principal(), nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.HashedPassword = ""
	return u, nil
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	PhotoURL *string `json:"photo_url,omitempty" validate:"omitempty,url"`
}

func (s *UserService) UpdateProfile(ctx context.Context, p model.Principal, userID string, req UpdateProfileRequest) (*model.User, error) {
	if p.UserID != userID && !Can(p, CapManageUsers) {
		return nil, fmt.Errorf("cannot edit another user's profile: %w", common.ErrForbidden)
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.PhotoURL != nil {
		u.PhotoURL = *req.PhotoURL
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	u.HashedPassword = ""
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, p model.Principal, filter model.UserFilter) ([]model.User, error) {
	if err := requireCap(p, CapManageUsers); err != nil {
		return nil, err
	}
	if filter.Role != "" && !model.ValidRole(filter.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", filter.Role, common.ErrValidation)
	}
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].HashedPassword = ""
	}
	return users, nil
}

type UpdateRoleRequest struct {
	Role       string `json:"role" validate:"required,oneof=user creator admin"`
	IsVerified *bool  `json:"is_verified,omitempty"`
}

func (s *UserService) UpdateUserRole(ctx context.Context, p model.Principal, userID string, req UpdateRoleRequest) (*model.User, error) {
	if err := requireCap(p, CapManageUsers); err != nil {
		return nil, err
	}
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	if userID == p.UserID && req.Role != model.RoleAdmin {
		return nil, fmt.Errorf("admins cannot demote themselves: %w", common.ErrConflict)
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	prev := u.Role
	u.Role = req.Role
	if req.IsVerified != nil {
		u.IsVerified = *req.IsVerified
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	log.Info().Str("admin_id", p.UserID).Str("user_id", userID).Str("from", prev).Str("to", u.Role).Msg("user role updated")
	u.HashedPassword = ""
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, p model.Principal, userID string) error {
	if err := requireCap(p, CapManageUsers); err != nil {
		return err
	}
	if userID == p.UserID {
		return fmt.Errorf("admins cannot delete themselves: %w", common.ErrConflict)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	log.Info().Str("admin_id", p.UserID).Str("user_id", userID).Msg("user deleted")
	return nil
}
