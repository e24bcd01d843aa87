package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mkale/btcfolio/internal/db"
	"github.com/mkale/btcfolio/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("invalid or expired token")
)

// AuthService handles user registration, login, and bearer tokens.
// The signing secret and token lifetime come from process configuration,
// never from package-level state.
type AuthService struct {
	DB         *db.DB
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(db *db.DB, secret string, tokenTTL time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		DB:         db,
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new user with a hashed password. Duplicate emails
// surface as db.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	// Validate input
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email, and password are required", ErrInvalidInput)
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("%w: name too long (max 100 characters)", ErrInvalidInput)
	}
	if len(email) > 255 {
		return nil, fmt.Errorf("%w: email too long (max 255 characters)", ErrInvalidInput)
	}
	if len(password) > 72 {
		return nil, fmt.Errorf("%w: password too long (max 72 characters)", ErrInvalidInput)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.DB.CreateUser(ctx, name, email, string(hashedPassword))
	if err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns a signed token. Unknown email
// and wrong password both map to ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.DB.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.IssueToken(user.ID)
}

// IssueToken signs a time-boxed token for the given user.
func (s *AuthService) IssueToken(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// VerifyToken validates a token and returns the user ID it was issued
// for. Any parse, signature, or expiry failure maps to ErrTokenInvalid.
func (s *AuthService) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrTokenInvalid
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}
