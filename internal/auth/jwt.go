package auth

import (
    "context"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"

    "github.com/bilemo/catalog-server/internal/config"
    "github.com/bilemo/catalog-server/internal/fault"
    "github.com/bilemo/catalog-server/internal/models"
    "github.com/bilemo/catalog-server/pkg/crypto"
)

// Token kinds carried in the typ claim
const (
    TokenAccess  = "access"
    TokenRefresh = "refresh"
)

// UserLookup loads a user by id
type UserLookup func(ctx context.Context, id int64) (*models.User, error)

// JWTManager manages JWT tokens
type JWTManager struct {
    config *config.JWTConfig
    now    func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(cfg *config.JWTConfig) *JWTManager {
    return &JWTManager{
        config: cfg,
        now:    time.Now,
    }
}

// Claims represents JWT claims
type Claims struct {
    jwt.RegisteredClaims
    UserID   int64        `json:"user_id"`
    TenantID int64        `json:"tenant_id"`
    Roles    models.Roles `json:"roles,omitempty"`
    Type     string       `json:"typ"`
}

// TokenPair is returned by login and refresh
type TokenPair struct {
    AccessToken  string `json:"token"`
    RefreshToken string `json:"refresh_token"`
    TokenType    string `json:"token_type"`
    ExpiresIn    int64  `json:"expires_in"`
}

// GenerateTokenPair generates access and refresh tokens
func (m *JWTManager) GenerateTokenPair(user *models.User) (*TokenPair, error) {
    now := m.now()
    subject := strconv.FormatInt(user.ID, 10)

    // Access token
    accessClaims := Claims{
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   subject,
            ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTokenTTL)),
            IssuedAt:  jwt.NewNumericDate(now),
            NotBefore: jwt.NewNumericDate(now),
            Issuer:    m.config.Issuer,
        },
        UserID:   user.ID,
        TenantID: user.TenantID,
        Roles:    user.EffectiveRoles(),
        Type:     TokenAccess,
    }

    accessToken, err := m.sign(accessClaims)
    if err != nil {
        return nil, fmt.Errorf("sign access token: %w", err)
    }

    // Refresh token
    refreshClaims := Claims{
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   subject,
            ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTokenTTL)),
            IssuedAt:  jwt.NewNumericDate(now),
            NotBefore: jwt.NewNumericDate(now),
            Issuer:    m.config.Issuer,
            ID:        uuid.NewString(),
        },
        UserID: user.ID,
        Type:   TokenRefresh,
    }

    refreshToken, err := m.sign(refreshClaims)
    if err != nil {
        return nil, fmt.Errorf("sign refresh token: %w", err)
    }

    return &TokenPair{
        AccessToken:  accessToken,
        RefreshToken: refreshToken,
        TokenType:    "Bearer",
        ExpiresIn:    int64(m.config.AccessTokenTTL / time.Second),
    }, nil
}

func (m *JWTManager) sign(claims Claims) (string, error) {
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
}

func (m *JWTManager) parse(tokenString, typ string) (*Claims, error) {
    token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
        if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
        }
        return []byte(m.config.Secret), nil
    },
        jwt.WithIssuer(m.config.Issuer),
        jwt.WithTimeFunc(m.now),
    )
    if err != nil {
        return nil, &fault.Error{Kind: fault.KindDenied, Msg: "invalid or expired token", Err: err}
    }

    claims, ok := token.Claims.(*Claims)
    if !ok || !token.Valid || claims.Type != typ || claims.UserID == 0 {
        return nil, fault.Denied("invalid or expired token")
    }
    return claims, nil
}

// ValidateToken validates an access token
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
    return m.parse(tokenString, TokenAccess)
}

// RefreshToken issues a new pair for the user of a valid refresh token.
// The user is reloaded so that removed users cannot refresh.
func (m *JWTManager) RefreshToken(ctx context.Context, refreshTokenString string, lookup UserLookup) (*TokenPair, error) {
    claims, err := m.parse(refreshTokenString, TokenRefresh)
    if err != nil {
        return nil, err
    }

    user, err := lookup(ctx, claims.UserID)
    if err != nil {
        if fault.KindOf(err) == fault.KindNotFound {
            return nil, fault.Denied("invalid or expired token")
        }
        return nil, fmt.Errorf("load token user: %w", err)
    }

    return m.GenerateTokenPair(user)
}

// VerifyPassword verifies a password against a hash
func (m *JWTManager) VerifyPassword(password, hash string) bool {
    return crypto.VerifyPassword(password, hash)
}
