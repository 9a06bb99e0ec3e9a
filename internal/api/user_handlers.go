package api

import (
    "context"
    "net/http"
    "strconv"

    "github.com/rs/zerolog/log"

    "github.com/bilemo/catalog-server/internal/access"
    "github.com/bilemo/catalog-server/internal/events"
    "github.com/bilemo/catalog-server/internal/fault"
    "github.com/bilemo/catalog-server/internal/models"
    "github.com/bilemo/catalog-server/internal/pagination"
    "github.com/bilemo/catalog-server/internal/view"
    "github.com/bilemo/catalog-server/pkg/crypto"
)

// HandleListUsers lists the users of the actor's tenant
func (s *RESTServer) HandleListUsers(w http.ResponseWriter, r *http.Request, actor *access.Actor) error {
    tenantID := actor.TenantID()
    if err := s.policy.Require(actor, access.See, access.TenantScope(tenantID)); err != nil {
        return err
    }

    users, _, err := pagination.Paginate(r.Context(), r.URL.Query(), s.userPaging, s.store.UserQuery(tenantID))
    if err != nil {
        return err
    }

    reps, err := view.ProjectList(s.projector, models.KindUser, view.List, users)
    if err != nil {
        return err
    }
    s.respondJSON(w, http.StatusOK, reps)
    return nil
}

// HandleGetUser gets a user
func (s *RESTServer) HandleGetUser(w http.ResponseWriter, r *http.Request, actor *access.Actor) error {
    user, err := s.loadUser(r)
    if err != nil {
        return err
    }
    if err := s.policy.Require(actor, access.See, user); err != nil {
        return err
    }
    return s.respondUser(w, r.Context(), http.StatusOK, user)
}

// HandleCreateUser creates a user under the actor's tenant
func (s *RESTServer) HandleCreateUser(w http.ResponseWriter, r *http.Request, actor *access.Actor) error {
    user := &models.User{Roles: models.Roles{models.RoleUser}}
    user.TenantID = actor.TenantID()
    if err := s.policy.Require(actor, access.Add, user); err != nil {
        return err
    }

    var in models.UserInput
    if err := s.decodeJSON(w, r, &in); err != nil {
        return err
    }
    if err := s.validator.ValidateNewUser(in); err != nil {
        return err
    }
    user.Apply(in)

    hash, err := crypto.HashPassword(in.Password)
    if err != nil {
        return err
    }
    user.PasswordHash = hash

    if err := s.store.CreateUser(r.Context(), user); err != nil {
        return err
    }

    log.Info().
        Int64("user_id", user.ID).
        Int64("tenant_id", user.TenantID).
        Int64("actor_id", actor.ID).
        Msg("User created")
    s.publish(r.Context(), events.New(events.UserCreated, user.TenantID, user.ID, actor.ID))

    w.Header().Set("Location", s.config.API.BaseURL+"/api/users/"+strconv.FormatInt(user.ID, 10))
    return s.respondUser(w, r.Context(), http.StatusCreated, user)
}

// HandleUpdateUser updates a user. Only non-empty values overwrite, and the
// stored user is untouched unless the merged result validates.
func (s *RESTServer) HandleUpdateUser(w http.ResponseWriter, r *http.Request, actor *access.Actor) error {
    current, err := s.loadUser(r)
    if err != nil {
        return err
    }
    if err := s.policy.Require(actor, access.Edit, current); err != nil {
        return err
    }

    var in models.UserInput
    if err := s.decodeJSON(w, r, &in); err != nil {
        return err
    }
    if err := s.validator.ValidateUserUpdate(in); err != nil {
        return err
    }

    next := *current
    next.Roles = append(models.Roles(nil), current.Roles...)
    next.Apply(in)
    if in.Password != "" {
        hash, err := crypto.HashPassword(in.Password)
        if err != nil {
            return err
        }
        next.PasswordHash = hash
    }

    if err := s.store.UpdateUser(r.Context(), &next); err != nil {
        return err
    }

    s.publish(r.Context(), events.New(events.UserUpdated, next.TenantID, next.ID, actor.ID))
    return s.respondUser(w, r.Context(), http.StatusOK, &next)
}

// HandleDeleteUser deletes a user
func (s *RESTServer) HandleDeleteUser(w http.ResponseWriter, r *http.Request, actor *access.Actor) error {
    user, err := s.loadUser(r)
    if err != nil {
        return err
    }
    if err := s.policy.Require(actor, access.Delete, user); err != nil {
        return err
    }

    if err := s.store.DeleteUser(r.Context(), user.ID); err != nil {
        return err
    }

    log.Info().
        Int64("user_id", user.ID).
        Int64("tenant_id", user.TenantID).
        Int64("actor_id", actor.ID).
        Msg("User deleted")
    s.publish(r.Context(), events.New(events.UserDeleted, user.TenantID, user.ID, actor.ID))

    w.WriteHeader(http.StatusNoContent)
    return nil
}

func (s *RESTServer) loadUser(r *http.Request) (*models.User, error) {
    id, err := pathID(r)
    if err != nil {
        return nil, err
    }
    return s.store.GetUser(r.Context(), id)
}

// respondUser writes the details view with the owning customer attached
func (s *RESTServer) respondUser(w http.ResponseWriter, ctx context.Context, status int, user *models.User) error {
    if user.Customer == nil {
        tenant, err := s.tenants.GetTenant(ctx, user.TenantID)
        if err != nil && fault.KindOf(err) != fault.KindNotFound {
            return err
        }
        user.Customer = tenant
    }

    rep, err := s.projector.Project(models.KindUser, view.Details, user)
    if err != nil {
        return err
    }
    s.respondJSON(w, status, rep)
    return nil
}
