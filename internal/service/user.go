package service

import (
	"context"
	"errors"
	"fmt"

	"course-service/internal/apperr"
	"course-service/internal/auth"
	"course-service/internal/models"
	"course-service/internal/util"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles accounts and sessions
type UserService struct {
	users  UserStore
	tokens *auth.Manager
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, tokens *auth.Manager) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		logger: util.GetLogger(),
	}
}

// SignupRequest carries new-account input
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

// SigninRequest carries credential input
type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the session token and the account it belongs to
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup registers an account and opens a session
func (s *UserService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Signup")
	defer span.End()

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role != models.RoleStudent && role != models.RoleInstructor {
		return nil, apperr.BadRequest("invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.Role))

	return s.openSession(user)
}

// Signin checks credentials and opens a session
func (s *UserService) Signin(ctx context.Context, req *SigninRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Signin")
	defer span.End()

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	return s.openSession(user)
}

// Profile returns the account for an authenticated user
func (s *UserService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// UpdateProfileRequest carries account edits; empty fields keep their
// current value
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}

// UpdateProfile edits the account's name and email
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if err := s.users.UpdateUserProfile(ctx, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// ChangePasswordRequest carries the current and the replacement password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword replaces the password after checking the current one.
// Issued tokens stay valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req *ChangePasswordRequest) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apperr.Unauthorized("invalid credentials")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password changed", zap.Int64("user_id", userID))
	return nil
}

// DeleteAccountRequest carries the password confirmation for deletion
type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// DeleteAccount removes the account after a password check. The user's
// purchases and progress go with it; instructors must hand off or
// remove their courses first.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64, req *DeleteAccountRequest) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return apperr.Unauthorized("invalid credentials")
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return apperr.Conflict("account still owns courses")
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.logger.Info("Account deleted", zap.Int64("user_id", userID))
	return nil
}

func (s *UserService) openSession(user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}
