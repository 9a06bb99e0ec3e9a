package api

import (
    "net/http"

    "github.com/bilemo/catalog-server/internal/access"
    "github.com/bilemo/catalog-server/internal/models"
    "github.com/bilemo/catalog-server/internal/pagination"
    "github.com/bilemo/catalog-server/internal/view"
)

// HandleListProducts lists the catalog. Anonymous callers are allowed; an
// authenticated actor must pass the tenant gate.
func (s *RESTServer) HandleListProducts(w http.ResponseWriter, r *http.Request, actor *access.Actor) error {
    if actor != nil {
        if err := s.policy.Require(actor, access.See, access.Catalog{}); err != nil {
            return err
        }
    }

    products, _, err := pagination.Paginate(r.Context(), r.URL.Query(), s.productPaging, s.store.ProductQuery())
    if err != nil {
        return err
    }

    reps, err := view.ProjectList(s.projector, models.KindProduct, view.List, products)
    if err != nil {
        return err
    }
    s.respondJSON(w, http.StatusOK, reps)
    return nil
}

// HandleGetProduct gets a product
func (s *RESTServer) HandleGetProduct(w http.ResponseWriter, r *http.Request, actor *access.Actor) error {
    id, err := pathID(r)
    if err != nil {
        return err
    }

    product, err := s.store.GetProduct(r.Context(), id)
    if err != nil {
        return err
    }
    if err := s.policy.Require(actor, access.See, product); err != nil {
        return err
    }

    rep, err := s.projector.Project(models.KindProduct, view.Details, product)
    if err != nil {
        return err
    }
    s.respondJSON(w, http.StatusOK, rep)
    return nil
}
