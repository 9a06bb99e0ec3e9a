package api

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/rs/zerolog/log"

    "github.com/bilemo/catalog-server/internal/access"
    "github.com/bilemo/catalog-server/internal/events"
    "github.com/bilemo/catalog-server/internal/fault"
)

// handlerFunc is a route handler receiving the resolved actor, nil on
// anonymous routes. Returned errors are translated once by wrap.
type handlerFunc func(w http.ResponseWriter, r *http.Request, actor *access.Actor) error

// wrap adapts h to http.HandlerFunc
func (s *RESTServer) wrap(h handlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        if err := h(w, r, actorFrom(r.Context())); err != nil {
            s.fail(w, r, err)
        }
    }
}

// fail translates err into the error envelope and logs it
func (s *RESTServer) fail(w http.ResponseWriter, r *http.Request, err error) {
    env := fault.Translate(err)

    ev := log.Debug()
    if env.Status >= http.StatusInternalServerError {
        ev = log.Error()
    }
    ev.Err(err).
        Str("request_id", middleware.GetReqID(r.Context())).
        Str("method", r.Method).
        Str("path", r.URL.Path).
        Int("status", env.Status).
        Msg("Request failed")

    s.respondJSON(w, env.Status, env)
}

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
    response, err := json.Marshal(payload)
    if err != nil {
        log.Error().Err(err).Msg("Failed to marshal response")
        w.WriteHeader(http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    w.Write(response)
}

// decodeJSON reads a size limited JSON body into v
func (s *RESTServer) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
    body := http.MaxBytesReader(w, r.Body, s.config.API.BodyLimit)
    if err := json.NewDecoder(body).Decode(v); err != nil {
        var tooLarge *http.MaxBytesError
        switch {
        case errors.As(err, &tooLarge):
            return fault.BadRequest("request body too large")
        case errors.Is(err, io.EOF):
            return fault.BadRequest("request body is empty")
        default:
            return fault.BadRequest("invalid request body")
        }
    }
    return nil
}

// pathID parses the {id} route parameter. Malformed ids match no resource.
func pathID(r *http.Request) (int64, error) {
    raw := chi.URLParam(r, "id")
    id, err := strconv.ParseInt(raw, 10, 64)
    if err != nil || id <= 0 {
        return 0, fault.NotFound("resource %q not found", raw)
    }
    return id, nil
}

// publish sends an event; failures are logged only
func (s *RESTServer) publish(ctx context.Context, e events.Event) {
    if err := s.events.Publish(ctx, e); err != nil {
        log.Warn().Err(err).Str("type", string(e.Type)).Msg("Failed to publish event")
    }
}

// ========== Auth handlers ==========

// HandleLogin handles user login
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request, _ *access.Actor) error {
    var req struct {
        Username string `json:"username"`
        Password string `json:"password"`
    }
    if err := s.decodeJSON(w, r, &req); err != nil {
        return err
    }
    if req.Username == "" || req.Password == "" {
        return fault.Denied("invalid credentials")
    }

    // Get user
    user, err := s.store.GetUserByUsername(r.Context(), req.Username)
    if err != nil {
        if fault.KindOf(err) == fault.KindNotFound {
            return fault.Denied("invalid credentials")
        }
        return err
    }

    // Verify password
    if !s.auth.VerifyPassword(req.Password, user.PasswordHash) {
        return fault.Denied("invalid credentials")
    }

    pair, err := s.auth.GenerateTokenPair(user)
    if err != nil {
        return err
    }
    s.respondJSON(w, http.StatusOK, pair)
    return nil
}

// HandleRefresh handles token refresh
func (s *RESTServer) HandleRefresh(w http.ResponseWriter, r *http.Request, _ *access.Actor) error {
    var req struct {
        RefreshToken string `json:"refresh_token"`
    }
    if err := s.decodeJSON(w, r, &req); err != nil {
        return err
    }
    if req.RefreshToken == "" {
        return fault.Denied("invalid or expired token")
    }

    pair, err := s.auth.RefreshToken(r.Context(), req.RefreshToken, s.store.GetUser)
    if err != nil {
        return err
    }
    s.respondJSON(w, http.StatusOK, pair)
    return nil
}

// HandleHealth health check handler
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
    status, code := "healthy", http.StatusOK
    if err := s.store.Ping(r.Context()); err != nil {
        log.Warn().Err(err).Msg("Health check: store unreachable")
        status, code = "unhealthy", http.StatusServiceUnavailable
    }
    s.respondJSON(w, code, map[string]interface{}{
        "status":  status,
        "service": s.config.Server.Name,
        "version": s.config.Server.Version,
        "time":    time.Now().UTC(),
    })
}
