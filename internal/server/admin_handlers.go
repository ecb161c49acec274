package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"memoria-client/internal/validation"
	"memoria-client/pkg/api"
)

// AdminHandler serves the admin CRUD routes. Authorization is enforced
// by the RequireAdmin middleware, not here.
type AdminHandler struct {
	store  *Store
	logger *zap.Logger
}

// NewAdminHandler creates the admin handler set.
func NewAdminHandler(store *Store, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{store: store, logger: logger}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.store.ListUsers())
}

// CreateUser handles POST /api/admin/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var user api.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(user); err != nil {
		writeError(w, err)
		return
	}

	created := h.store.CreateUser(user)
	h.logger.Info("user created", zap.String("userId", created.ID))
	api.Success(w, http.StatusCreated, created)
}

// UpdateUser handles PUT /api/admin/users/{userId}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var user api.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(user); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.store.UpdateUser(chi.URLParam(r, "userId"), user)
	if err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, updated)
}

// DeleteUser handles DELETE /api/admin/users/{userId}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteUser(chi.URLParam(r, "userId")); err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, nil)
}

// ListSubscriptions handles GET /api/admin/subscriptions.
func (h *AdminHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.store.ListSubscriptions())
}

// CreateSubscription handles POST /api/admin/subscriptions.
func (h *AdminHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub api.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(sub); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.store.CreateSubscription(sub)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("subscription created",
		zap.String("subscriptionId", created.ID),
		zap.String("userId", created.UserID))
	api.Success(w, http.StatusCreated, created)
}

// DeleteSubscription handles DELETE /api/admin/subscriptions/{subId}.
func (h *AdminHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSubscription(chi.URLParam(r, "subId")); err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, nil)
}

// ListLimitPackages handles GET /api/admin/packages.
func (h *AdminHandler) ListLimitPackages(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.store.ListLimitPackages())
}

// CreateLimitPackage handles POST /api/admin/packages.
func (h *AdminHandler) CreateLimitPackage(w http.ResponseWriter, r *http.Request) {
	var pkg api.LimitPackage
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(pkg); err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, h.store.CreateLimitPackage(pkg))
}

// UpdateLimitPackage handles PUT /api/admin/packages/{pkgId}.
func (h *AdminHandler) UpdateLimitPackage(w http.ResponseWriter, r *http.Request) {
	var pkg api.LimitPackage
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(pkg); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.store.UpdateLimitPackage(chi.URLParam(r, "pkgId"), pkg)
	if err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, updated)
}

// DeleteLimitPackage handles DELETE /api/admin/packages/{pkgId}.
func (h *AdminHandler) DeleteLimitPackage(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteLimitPackage(chi.URLParam(r, "pkgId")); err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, nil)
}
