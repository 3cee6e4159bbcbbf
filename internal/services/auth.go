package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/ctxutil"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

const lastSeenInterval = time.Minute

// JWTClaims is the subset of the auth provider's access token the backend reads.
type JWTClaims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) DisplayName() string {
	for _, k := range []string{"name", "full_name", "display_name"} {
		if v, ok := c.UserMetadata[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// AuthService verifies provider-issued tokens. Tokens are never issued here.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// EnsureUser provisions the caller on first sight and refreshes last_seen_at.
	EnsureUser(dbc dbctx.Context) (*types.User, error)
}

type authService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	secret   []byte
	audience string
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, jwtSecret, audience string) AuthService {
	return &authService{
		db:       db,
		log:      baseLog.With("service", "AuthService"),
		userRepo: userRepo,
		secret:   []byte(jwtSecret),
		audience: strings.TrimSpace(audience),
		now:      utcNow,
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing token")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(as.now),
	}
	if as.audience != "" {
		opts = append(opts, jwt.WithAudience(as.audience))
	}
	claims := &JWTClaims{}
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return as.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, apierr.New(apierr.KindUnauthorized, "token expired", err)
		}
		return ctx, apierr.New(apierr.KindUnauthorized, "invalid token", err)
	}
	if !parsed.Valid {
		return ctx, apierr.Unauthorized("invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, apierr.New(apierr.KindUnauthorized, "invalid subject", err)
	}
	rd := &ctxutil.RequestData{
		UserID:      userID,
		Email:       strings.ToLower(strings.TrimSpace(claims.Email)),
		DisplayName: claims.DisplayName(),
		TokenString: tokenString,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) EnsureUser(dbc dbctx.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	now := as.now()
	email := rd.Email
	if email == "" {
		email = rd.UserID.String() + "@users.invalid"
	}
	u, created, err := as.userRepo.EnsureUser(dbc, &types.User{
		ID:          rd.UserID,
		Email:       email,
		DisplayName: rd.DisplayName,
		Theme:       "light",
		LastSeenAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, aggregates.MapError("ensure user", err)
	}
	if created {
		as.log.Info("Provisioned user", "user_id", u.ID)
		return u, nil
	}
	if _, err := as.userRepo.TouchLastSeen(dbc, u.ID, now, lastSeenInterval); err != nil {
		as.log.Warn("touch last_seen_at failed", "user_id", u.ID, "error", err)
	}
	return u, nil
}

// SignTestToken mints an HS256 token the way the auth provider does. Used by tests and local tooling.
func SignTestToken(secret string, userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}
