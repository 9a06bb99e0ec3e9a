package api

import (
    "net/http"

    "github.com/bilemo/catalog-server/internal/access"
    "github.com/bilemo/catalog-server/internal/models"
    "github.com/bilemo/catalog-server/internal/view"
)

// HandleGetCustomer gets a customer with its users
func (s *RESTServer) HandleGetCustomer(w http.ResponseWriter, r *http.Request, actor *access.Actor) error {
    id, err := pathID(r)
    if err != nil {
        return err
    }

    tenant, err := s.store.GetTenant(r.Context(), id)
    if err != nil {
        return err
    }
    if err := s.policy.Require(actor, access.See, tenant); err != nil {
        return err
    }

    tenant.Users, err = s.store.ListTenantUsers(r.Context(), tenant.ID)
    if err != nil {
        return err
    }

    rep, err := s.projector.Project(models.KindCustomer, view.Details, tenant)
    if err != nil {
        return err
    }
    s.respondJSON(w, http.StatusOK, rep)
    return nil
}
