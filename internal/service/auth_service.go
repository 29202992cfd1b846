package service

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"go-site-inventory/internal/model"
	"go-site-inventory/internal/repository"
	"go-site-inventory/pkg/jwt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ChangePassword(email, oldPassword, newPassword string) error
	SetPassword(email, newPassword string) error
	Authenticate(tokenString string) (*model.User, error)
	EnsureAdmin(email, password string) (bool, error)
}

type LoginResponse struct {
	Token      string             `json:"token"`
	ExpiresAt  time.Time          `json:"expires_at"`
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"` // Flat privileges array for easy checking
}

type authService struct {
	userRepo repository.UserRepository
	signer   *jwt.Signer
	ttl      time.Duration
	log      *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, signer *jwt.Signer, ttl time.Duration, log *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		signer:   signer,
		ttl:      ttl,
		log:      log,
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(normalizeEmail(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 4. Generate JWT token
	token, err := s.signer.GenerateToken(user.ID, user.Email, user.FullName, user.Role, user.Privileges())
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	if err := s.userRepo.UpdateLastSeen(user.ID); err != nil {
		s.log.Warn("last seen not updated", "user", user.Email, "err", err)
	}
	s.log.Info("user logged in", "user", user.Email, "role", user.Role)

	return &LoginResponse{
		Token:      token,
		ExpiresAt:  time.Now().Add(s.ttl),
		User:       user.ToResponse(),
		Privileges: user.Privileges(),
	}, nil
}

func (s *authService) ChangePassword(email, oldPassword, newPassword string) error {
	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(normalizeEmail(email))
	if err != nil {
		return ErrUserNotFound
	}

	// 2. Verify old password
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}

	return s.setPassword(user, newPassword)
}

// SetPassword overwrites a password without the old one. Used by the admin CLI.
func (s *authService) SetPassword(email, newPassword string) error {
	user, err := s.userRepo.FindByEmail(normalizeEmail(email))
	if err != nil {
		return ErrUserNotFound
	}
	return s.setPassword(user, newPassword)
}

func (s *authService) setPassword(user *model.User, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	return s.userRepo.UpdatePassword(user.ID, user.Password)
}

// Authenticate resolves a bearer token to an active user.
func (s *authService) Authenticate(tokenString string) (*model.User, error) {
	claims, err := s.signer.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// EnsureAdmin creates the first ADMIN account when the user table is empty.
// It reports whether an account was created.
func (s *authService) EnsureAdmin(email, password string) (bool, error) {
	n, err := s.userRepo.Count()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	admin := &model.User{
		Email:    normalizeEmail(email),
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.ID = uuid.New()
	admin.CreatedBy = "system"
	if err := admin.SetPassword(password); err != nil {
		return false, err
	}
	if err := s.userRepo.Create(admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	s.log.Info("seeded admin user", "email", admin.Email)
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
