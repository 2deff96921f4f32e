package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"split-service/internal/models"
	"split-service/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Custom errors
var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserService handles registration and login. On registration the account
// also gets a self member entry in its own address book, so the owner can
// participate in groups and expenses like any other member identity.
type UserService struct {
	users     *repository.UserRepository
	members   *repository.MemberRepository
	db        *gorm.DB
	jwtSecret string
	jwtExpiry time.Duration
}

func NewUserService(db *gorm.DB, users *repository.UserRepository, members *repository.MemberRepository, jwtSecret string, jwtExpiry time.Duration) *UserService {
	return &UserService{
		users:     users,
		members:   members,
		db:        db,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error) {
	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{Username: req.Username, Email: req.Email, Password: string(hashed)}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(ctx, &user); err != nil {
			return err
		}
		self := models.Member{
			ID:      uuid.NewString(),
			OwnerID: user.ID,
			Name:    user.Username,
			UserID:  &user.ID,
		}
		return s.members.WithTx(tx).Create(ctx, &self)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.generateJWT(user)
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &models.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *UserService) generateJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
