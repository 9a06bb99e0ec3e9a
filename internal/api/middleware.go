package api

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/go-chi/chi/v5/middleware"
    "github.com/rs/zerolog/log"

    "github.com/bilemo/catalog-server/internal/access"
    "github.com/bilemo/catalog-server/internal/fault"
)

type ctxKey int

const actorKey ctxKey = iota

// actorFrom returns the actor stored by the auth middleware, or nil.
func actorFrom(ctx context.Context) *access.Actor {
    a, _ := ctx.Value(actorKey).(*access.Actor)
    return a
}

// requestLogger writes one access log line per request
func requestLogger(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

        defer func() {
            log.Info().
                Str("request_id", middleware.GetReqID(r.Context())).
                Str("method", r.Method).
                Str("path", r.URL.Path).
                Int("status", ww.Status()).
                Int("bytes", ww.BytesWritten()).
                Dur("duration", time.Since(start)).
                Str("remote", r.RemoteAddr).
                Msg("Request")
        }()

        next.ServeHTTP(ww, r)
    })
}

// authMiddleware requires a valid bearer token and stores the actor
func (s *RESTServer) authMiddleware(next http.Handler) http.Handler {
    return s.authenticate(next, true)
}

// optionalAuth stores the actor when a token is presented. A presented but
// invalid token is still rejected.
func (s *RESTServer) optionalAuth(next http.Handler) http.Handler {
    return s.authenticate(next, false)
}

func (s *RESTServer) authenticate(next http.Handler, required bool) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        // Get token from header
        authHeader := r.Header.Get("Authorization")
        if authHeader == "" {
            if !required {
                next.ServeHTTP(w, r)
                return
            }
            s.fail(w, r, fault.Denied("missing authorization header"))
            return
        }

        // Parse Bearer token
        parts := strings.SplitN(authHeader, " ", 2)
        if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
            s.fail(w, r, fault.Denied("invalid authorization header"))
            return
        }

        actor, err := s.resolveActor(r.Context(), strings.TrimSpace(parts[1]))
        if err != nil {
            s.fail(w, r, err)
            return
        }

        ctx := context.WithValue(r.Context(), actorKey, actor)
        next.ServeHTTP(w, r.WithContext(ctx))
    })
}

// resolveActor validates the token and reloads the user and its tenant so
// that role and tenant changes apply before the token expires.
func (s *RESTServer) resolveActor(ctx context.Context, token string) (*access.Actor, error) {
    claims, err := s.auth.ValidateToken(token)
    if err != nil {
        return nil, err
    }

    user, err := s.store.GetUser(ctx, claims.UserID)
    if err != nil {
        if fault.KindOf(err) == fault.KindNotFound {
            return nil, fault.Denied("invalid or expired token")
        }
        return nil, err
    }

    actor := &access.Actor{ID: user.ID, Roles: user.EffectiveRoles()}
    tenant, err := s.tenants.GetTenant(ctx, user.TenantID)
    switch {
    case err == nil:
        actor.Tenant = tenant
    case fault.KindOf(err) == fault.KindNotFound:
        // no tenant: every decision denies
    default:
        return nil, err
    }
    return actor, nil
}
