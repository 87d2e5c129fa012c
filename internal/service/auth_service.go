package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/closehq/close-api/internal/repository"
	"github.com/closehq/close-api/pkg/auth"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService is the identity gateway: anonymous guest sign-in for the
// normal flow plus email/password accounts for users who want a stable
// identity across devices.
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *auth.JWTManager
	rdb        *redis.Client
}

func NewAuthService(userRepo *repository.UserRepository, jwtManager *auth.JWTManager, rdb *redis.Client) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		rdb:        rdb,
	}
}

// GuestLogin creates an anonymous identity and signs it in. Guests carry no
// credentials; the JWT is their only handle on the account.
func (s *AuthService) GuestLogin(name string) (*model.LoginResponse, error) {
	if name == "" {
		name = "Guest"
	}

	user := &model.User{
		ID:      uuid.New(),
		Name:    name,
		IsGuest: true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	token, err := s.jwtManager.GenerateToken(user.ID, "", user.Name)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{Token: token, User: user.ToResponse()}, nil
}

// Register creates an email/password account and signs it in
func (s *AuthService) Register(req model.RegisterRequest) (*model.LoginResponse, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	email := req.Email
	user := &model.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        &email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	token, err := s.jwtManager.GenerateToken(user.ID, req.Email, user.Name)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{Token: token, User: user.ToResponse()}, nil
}

// Login authenticates an email/password account
func (s *AuthService) Login(req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrBadCredentials
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	token, err := s.jwtManager.GenerateToken(user.ID, email, user.Name)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{Token: token, User: user.ToResponse()}, nil
}

// Logout blacklists the presented token until its natural expiry
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		// already invalid, nothing to revoke
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, "blacklist:"+tokenString, "1", ttl).Err()
}

// GetProfile returns the current user
func (s *AuthService) GetProfile(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}
