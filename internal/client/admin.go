package client

import (
	"context"
	"net/http"
	"net/url"

	"memoria-client/internal/validation"
	"memoria-client/pkg/api"
	appErrors "memoria-client/pkg/errors"
)

// Admin endpoints are typed pass-through: request in, response out, no
// client-side logic. Non-admin callers receive an unauthorized error the
// view layer turns into a redirect.

// ListUsers returns all user accounts.
func (c *Client) ListUsers(ctx context.Context) ([]api.User, error) {
	var resp []api.User
	if err := c.do(ctx, "ListUsers", http.MethodGet, "/api/admin/users", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateUser creates a user account.
func (c *Client) CreateUser(ctx context.Context, user api.User) (*api.User, error) {
	if err := validation.Struct(user); err != nil {
		return nil, err
	}
	var resp api.User
	if err := c.do(ctx, "CreateUser", http.MethodPost, "/api/admin/users", nil, user, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateUser edits a user account.
func (c *Client) UpdateUser(ctx context.Context, userID string, user api.User) (*api.User, error) {
	if userID == "" {
		return nil, appErrors.NewValidation("user id cannot be empty")
	}
	if err := validation.Struct(user); err != nil {
		return nil, err
	}
	var resp api.User
	path := "/api/admin/users/" + url.PathEscape(userID)
	if err := c.do(ctx, "UpdateUser", http.MethodPut, path, nil, user, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteUser removes a user account.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return appErrors.NewValidation("user id cannot be empty")
	}
	return c.do(ctx, "DeleteUser", http.MethodDelete, "/api/admin/users/"+url.PathEscape(userID), nil, nil, nil)
}

// ListSubscriptions returns all subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context) ([]api.Subscription, error) {
	var resp []api.Subscription
	if err := c.do(ctx, "ListSubscriptions", http.MethodGet, "/api/admin/subscriptions", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateSubscription assigns a feature-limit package to a user.
func (c *Client) CreateSubscription(ctx context.Context, sub api.Subscription) (*api.Subscription, error) {
	if err := validation.Struct(sub); err != nil {
		return nil, err
	}
	var resp api.Subscription
	if err := c.do(ctx, "CreateSubscription", http.MethodPost, "/api/admin/subscriptions", nil, sub, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSubscription cancels a subscription.
func (c *Client) DeleteSubscription(ctx context.Context, subID string) error {
	if subID == "" {
		return appErrors.NewValidation("subscription id cannot be empty")
	}
	return c.do(ctx, "DeleteSubscription", http.MethodDelete, "/api/admin/subscriptions/"+url.PathEscape(subID), nil, nil, nil)
}

// ListLimitPackages returns all feature-limit packages.
func (c *Client) ListLimitPackages(ctx context.Context) ([]api.LimitPackage, error) {
	var resp []api.LimitPackage
	if err := c.do(ctx, "ListLimitPackages", http.MethodGet, "/api/admin/packages", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateLimitPackage creates a feature-limit package.
func (c *Client) CreateLimitPackage(ctx context.Context, pkg api.LimitPackage) (*api.LimitPackage, error) {
	if err := validation.Struct(pkg); err != nil {
		return nil, err
	}
	var resp api.LimitPackage
	if err := c.do(ctx, "CreateLimitPackage", http.MethodPost, "/api/admin/packages", nil, pkg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateLimitPackage edits a feature-limit package.
func (c *Client) UpdateLimitPackage(ctx context.Context, pkgID string, pkg api.LimitPackage) (*api.LimitPackage, error) {
	if pkgID == "" {
		return nil, appErrors.NewValidation("package id cannot be empty")
	}
	if err := validation.Struct(pkg); err != nil {
		return nil, err
	}
	var resp api.LimitPackage
	path := "/api/admin/packages/" + url.PathEscape(pkgID)
	if err := c.do(ctx, "UpdateLimitPackage", http.MethodPut, path, nil, pkg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteLimitPackage removes a feature-limit package.
func (c *Client) DeleteLimitPackage(ctx context.Context, pkgID string) error {
	if pkgID == "" {
		return appErrors.NewValidation("package id cannot be empty")
	}
	return c.do(ctx, "DeleteLimitPackage", http.MethodDelete, "/api/admin/packages/"+url.PathEscape(pkgID), nil, nil, nil)
}

// GetAnalytics returns the dashboard aggregate for the current user.
func (c *Client) GetAnalytics(ctx context.Context) (*api.AnalyticsSummary, error) {
	var resp api.AnalyticsSummary
	if err := c.do(ctx, "GetAnalytics", http.MethodGet, "/api/analytics/summary", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
