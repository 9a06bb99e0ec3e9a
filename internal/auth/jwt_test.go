package auth

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/bilemo/catalog-server/internal/config"
    "github.com/bilemo/catalog-server/internal/fault"
    "github.com/bilemo/catalog-server/internal/models"
)

func newManager(now time.Time) *JWTManager {
    m := NewJWTManager(&config.JWTConfig{
        Secret:          "test-secret",
        Issuer:          "catalog-test",
        AccessTokenTTL:  time.Hour,
        RefreshTokenTTL: 24 * time.Hour,
    })
    m.now = func() time.Time { return now }
    return m
}

func testUser() *models.User {
    u := &models.User{Username: "jdoe", Roles: models.Roles{models.RoleAdmin}}
    u.ID = 9
    u.TenantID = 1
    return u
}

func TestGenerateAndValidate(t *testing.T) {
    now := time.Now()
    m := newManager(now)

    pair, err := m.GenerateTokenPair(testUser())
    require.NoError(t, err)
    assert.Equal(t, "Bearer", pair.TokenType)
    assert.Equal(t, int64(3600), pair.ExpiresIn)

    claims, err := m.ValidateToken(pair.AccessToken)
    require.NoError(t, err)
    assert.Equal(t, int64(9), claims.UserID)
    assert.Equal(t, int64(1), claims.TenantID)
    assert.Equal(t, "9", claims.Subject)
    assert.True(t, claims.Roles.Has(models.RoleAdmin))
    assert.True(t, claims.Roles.Has(models.RoleUser))
}

func TestValidateToken_Rejects(t *testing.T) {
    now := time.Now()
    m := newManager(now)
    pair, err := m.GenerateTokenPair(testUser())
    require.NoError(t, err)

    _, err = m.ValidateToken(pair.RefreshToken)
    assert.ErrorIs(t, err, fault.ErrDenied, "refresh token used as access token")

    _, err = m.ValidateToken("garbage")
    assert.ErrorIs(t, err, fault.ErrDenied)

    other := newManager(now)
    other.config.Secret = "another-secret"
    _, err = other.ValidateToken(pair.AccessToken)
    assert.ErrorIs(t, err, fault.ErrDenied, "wrong key")

    later := newManager(now.Add(2 * time.Hour))
    _, err = later.ValidateToken(pair.AccessToken)
    assert.ErrorIs(t, err, fault.ErrDenied, "expired")
}

func TestRefreshToken(t *testing.T) {
    now := time.Now()
    m := newManager(now)
    pair, err := m.GenerateTokenPair(testUser())
    require.NoError(t, err)

    lookup := func(_ context.Context, id int64) (*models.User, error) {
        if id != 9 {
            return nil, fault.NotFound("user %d not found", id)
        }
        u := testUser()
        u.Roles = nil
        return u, nil
    }

    fresh, err := m.RefreshToken(context.Background(), pair.RefreshToken, lookup)
    require.NoError(t, err)
    claims, err := m.ValidateToken(fresh.AccessToken)
    require.NoError(t, err)
    assert.False(t, claims.Roles.Has(models.RoleAdmin), "roles come from the reloaded user")

    _, err = m.RefreshToken(context.Background(), pair.AccessToken, lookup)
    assert.ErrorIs(t, err, fault.ErrDenied)

    gone := func(context.Context, int64) (*models.User, error) { return nil, fault.NotFound("gone") }
    _, err = m.RefreshToken(context.Background(), pair.RefreshToken, gone)
    assert.ErrorIs(t, err, fault.ErrDenied)

    boom := errors.New("db down")
    broken := func(context.Context, int64) (*models.User, error) { return nil, boom }
    _, err = m.RefreshToken(context.Background(), pair.RefreshToken, broken)
    assert.ErrorIs(t, err, boom)
}
