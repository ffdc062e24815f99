// Package admin holds the administrative actions the client performs
// optimistically against the backend.
package admin

import (
	"context"

	"github.com/visionbi/strand/pkg/api"
	"github.com/visionbi/strand/pkg/chat"
	"github.com/visionbi/strand/pkg/notify"
	"github.com/visionbi/strand/pkg/optimistic"
)

// RoleService is the slice of the API client used for role changes.
type RoleService interface {
	UpdateUserRole(ctx context.Context, userID int64, role string) error
}

// RoleController changes user roles with immediate local effect and full
// rollback on failure.
type RoleController struct {
	store    *chat.Store
	svc      RoleService
	notifier notify.Notifier
}

func NewRoleController(store *chat.Store, svc RoleService, notifier notify.Notifier) *RoleController {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &RoleController{store: store, svc: svc, notifier: notifier}
}

// ChangeRole applies the new role to the local user record, issues the
// backend call, and rolls back with a classified notification on failure.
func (rc *RoleController) ChangeRole(ctx context.Context, userID int64, role string) error {
	err := optimistic.Apply(ctx, role, optimistic.Mutation[string]{
		Get: func() string { return rc.store.UserRole(userID) },
		Set: func(r string) { rc.store.SetUserRole(userID, r) },
		Do: func(ctx context.Context) error {
			return rc.svc.UpdateUserRole(ctx, userID, role)
		},
	})
	if err != nil {
		rc.notifier.Failure(roleFailureMessage(err))
		return err
	}

	rc.notifier.Success("Role updated")
	return nil
}

func roleFailureMessage(err error) string {
	switch {
	case api.IsRateLimited(err):
		return "Too many requests, try again shortly"
	case api.IsForbidden(err):
		return "You do not have permission to change roles"
	default:
		return "Role update failed"
	}
}
