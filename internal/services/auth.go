package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/repos"
	"github.com/yungbote/coursecraft-backend/internal/sessions"
	"github.com/yungbote/coursecraft-backend/internal/types"
)

const minPasswordLength = 8

type RegisterInput struct {
	Username string
	Password string
	Role     string
	SchoolID *uuid.UUID
}

type LoginResult struct {
	Token    string     `json:"token"`
	Role     string     `json:"role"`
	SchoolID *uuid.UUID `json:"school_id,omitempty"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error)
	LoginUser(ctx context.Context, username, password string) (*LoginResult, error)
	LogoutUser(ctx context.Context, tokenString string) error
	Authenticate(ctx context.Context, tokenString string) (*types.User, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	users     repos.UserRepo
	tokens    repos.UserTokenRepo
	schools   repos.SchoolRepo
	store     sessions.Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	users repos.UserRepo,
	tokens repos.UserTokenRepo,
	schools repos.SchoolRepo,
	store sessions.Store,
	jwtSecret string,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		db:        db,
		log:       baseLog.With("service", "AuthService"),
		users:     users,
		tokens:    tokens,
		schools:   schools,
		store:     store,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		return nil, apierr.InvalidArgument("username is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apierr.InvalidArgument(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	role := in.Role
	if role == "" {
		role = types.RoleTeacher
	}
	if role != types.RoleTeacher && role != types.RoleSuperadmin {
		return nil, apierr.InvalidArgument("unknown role")
	}
	if role == types.RoleTeacher && in.SchoolID == nil {
		return nil, apierr.InvalidArgument("teachers must belong to a school")
	}
	if in.SchoolID != nil {
		found, err := as.schools.GetByIDs(ctx, nil, []uuid.UUID{*in.SchoolID})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, apierr.NotFound("school not found")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		SchoolID:     in.SchoolID,
	}
	if _, err := as.users.Create(ctx, nil, []*types.User{user}); err != nil {
		return nil, err
	}
	as.log.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := as.users.GetByUsername(ctx, nil, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.Unauthenticated("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apierr.Unauthenticated("invalid username or password")
	}

	expiresAt := time.Now().Add(as.tokenTTL)
	tokenString, err := as.signToken(user, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := as.tokens.Create(ctx, tx, []*types.UserToken{{
			ID:          uuid.New(),
			UserID:      user.ID,
			AccessToken: tokenString,
			ExpiresAt:   expiresAt,
		}})
		return err
	}); err != nil {
		return nil, err
	}
	if err := as.store.Put(ctx, tokenString, user.ID, as.tokenTTL); err != nil {
		as.log.Warn("Session cache write failed; falling back to token table", "error", err)
	}

	return &LoginResult{Token: tokenString, Role: user.Role, SchoolID: user.SchoolID}, nil
}

func (as *authService) LogoutUser(ctx context.Context, tokenString string) error {
	if tokenString == "" {
		return apierr.Unauthenticated("missing token")
	}
	if err := as.store.Delete(ctx, tokenString); err != nil {
		as.log.Warn("Session cache delete failed", "error", err)
	}
	return as.tokens.DeleteByAccessToken(ctx, nil, tokenString)
}

// Authenticate resolves a bearer token to its user. The JWT signature
// and expiry are checked first, then the token must still be live in
// the session cache or the token table (logout revokes both).
func (as *authService) Authenticate(ctx context.Context, tokenString string) (*types.User, error) {
	userID, err := as.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	cachedID, ok, err := as.store.Get(ctx, tokenString)
	if err != nil {
		as.log.Warn("Session cache read failed; falling back to token table", "error", err)
		ok = false
	}
	if !ok {
		row, err := as.tokens.GetByAccessToken(ctx, nil, tokenString)
		if err != nil {
			return nil, err
		}
		if row == nil || row.ExpiresAt.Before(time.Now()) {
			return nil, apierr.Unauthenticated("token revoked or expired")
		}
		cachedID = row.UserID
	}
	if cachedID != userID {
		return nil, apierr.Unauthenticated("token does not match session")
	}

	found, err := as.users.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apierr.Unauthenticated("user no longer exists")
	}
	return found[0], nil
}

func (as *authService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return as.tokens.DeleteExpired(ctx, nil, time.Now())
}

func (as *authService) signToken(user *types.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecret)
}

func (as *authService) parseToken(tokenString string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, apierr.Unauthenticated("token expired")
		}
		return uuid.Nil, apierr.Unauthenticated("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, apierr.Unauthenticated("invalid token")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, apierr.Unauthenticated("invalid token subject")
	}
	return userID, nil
}
