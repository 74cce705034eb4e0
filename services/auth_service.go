package services

import (
	"errors"
	"fmt"
	"time"

	"backend_stm/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService manages the local technician accounts used by the HTTP
// surface. Everything is local: no external identity provider is involved.
type AuthService struct {
	db           *gorm.DB
	jwtSecret    []byte
	tokenExpires time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *gorm.DB, jwtSecret string, expiresHours int) *AuthService {
	return &AuthService{
		db:           db,
		jwtSecret:    []byte(jwtSecret),
		tokenExpires: time.Duration(expiresHours) * time.Hour,
	}
}

// CreateUser registers a technician account with a bcrypt-hashed password.
func (as *AuthService) CreateUser(username, password, technicianName string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("unable to hash password: %w", err)
	}
	user := models.User{
		Username:       username,
		PasswordHash:   string(hash),
		TechnicianName: technicianName,
		IsActive:       true,
	}
	if err := as.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("unable to create user %s: %w", username, err)
	}
	return &user, nil
}

// Authenticate checks a username/password pair against the store.
func (as *AuthService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	err := as.db.Where("username = ? AND is_active = ?", username, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GenerateToken issues a signed JWT for an authenticated user.
func (as *AuthService) GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":        user.ID,
		"username":   user.Username,
		"technician": user.TechnicianName,
		"exp":        time.Now().Add(as.tokenExpires).Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("unable to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a JWT and returns its claims.
func (as *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
