// ============================================================================
// internal/auth/service.go
// Login, logout, token validation, and password changes
// ============================================================================

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"studentportal/internal/shared"
)

// Service implements authentication against the users collection.
type Service struct {
	db          *mongo.Database
	config      *shared.ServerConfig
	usersCol    *mongo.Collection
	sessionsCol *mongo.Collection
}

// CustomClaims for JWT
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewService creates an auth service.
func NewService(db *mongo.Database, config *shared.ServerConfig) *Service {
	return &Service{
		db:          db,
		config:      config,
		usersCol:    db.Collection("users"),
		sessionsCol: db.Collection("sessions"),
	}
}

// Login authenticates a user by email, student ID, or faculty ID and
// returns a JWT backed by a server-side session.
func (s *Service) Login(ctx context.Context, identifier, password string) (string, *shared.User, error) {
	if identifier == "" || password == "" {
		return "", nil, shared.NewValidationError("identifier", "identifier and password are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user shared.User
	filter := bson.M{
		"$or": []bson.M{
			{"email": identifier},
			{"student_id": identifier},
			{"faculty_id": identifier},
		},
	}

	err := s.usersCol.FindOne(queryCtx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil, shared.ErrUnauthorized
		}
		return "", nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrUnauthorized
	}

	if !user.IsActive {
		return "", nil, shared.ErrForbidden
	}

	tokenString, expiresAt, err := GenerateToken(s.config.Security.JWTSecret, s.config.Security.JWTExpirationHours, user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	// Server-side session allows logout/revocation
	session := shared.Session{
		ID:        shared.GenerateID("sess"),
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	if _, err := s.sessionsCol.InsertOne(queryCtx, session); err != nil {
		return "", nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	return tokenString, &user, nil
}

// Logout invalidates the session for a token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return shared.NewValidationError("token", "token is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.sessionsCol.DeleteMany(queryCtx, bson.M{"token": token}); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// Validate parses and verifies a token and confirms the backing session is
// still live. Returns the user the token belongs to.
func (s *Service) Validate(ctx context.Context, token string) (*shared.User, error) {
	claims, err := ParseToken(s.config.Security.JWTSecret, token)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var session shared.Session
	err = s.sessionsCol.FindOne(queryCtx, bson.M{"token": token}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	if session.IsExpired() {
		s.sessionsCol.DeleteOne(queryCtx, bson.M{"_id": session.ID})
		return nil, shared.ErrUnauthorized
	}

	var user shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": claims.UserID}).Decode(&user); err != nil {
		return nil, shared.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, shared.ErrForbidden
	}

	return &user, nil
}

// ChangePassword verifies the old password and stores a new bcrypt hash.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return shared.NewValidationError("new_password", "password must be at least 8 characters")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return shared.ErrNotFound
		}
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return shared.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.config.Security.BCryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	update := bson.M{"$set": bson.M{"password_hash": string(hash), "updated_at": time.Now()}}
	if _, err := s.usersCol.UpdateOne(queryCtx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	// Force re-login everywhere
	s.sessionsCol.DeleteMany(queryCtx, bson.M{"user_id": userID})
	return nil
}

// ============================================================================
// Token Helpers
// ============================================================================

// GenerateToken signs a JWT for a user.
func GenerateToken(secret string, expirationHours int, userID, role string) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(expirationHours) * time.Hour)

	claims := newClaims(userID, role, expiresAt)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func newClaims(userID, role string, expiresAt time.Time) *CustomClaims {
	return &CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "student-portal",
		},
	}
}

// ParseToken verifies a JWT signature and expiry and returns its claims.
func ParseToken(secret, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if !shared.IsValidRole(claims.Role) {
		return nil, fmt.Errorf("token carries unknown role %q", claims.Role)
	}
	return claims, nil
}
