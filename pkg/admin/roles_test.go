package admin_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionbi/strand/pkg/admin"
	"github.com/visionbi/strand/pkg/api"
	"github.com/visionbi/strand/pkg/chat"
)

type fakeRoleService struct {
	err      error
	lastID   int64
	lastRole string
	calls    int
}

func (f *fakeRoleService) UpdateUserRole(_ context.Context, userID int64, role string) error {
	f.calls++
	f.lastID = userID
	f.lastRole = role
	return f.err
}

type recorder struct {
	successes []string
	failures  []string
}

func (r *recorder) Success(msg string) { r.successes = append(r.successes, msg) }
func (r *recorder) Failure(msg string) { r.failures = append(r.failures, msg) }

func newStore() *chat.Store {
	store := chat.NewStore()
	store.PutUser(chat.User{ID: 5, Username: "dana", Role: "viewer"})
	return store
}

func TestChangeRole(t *testing.T) {
	t.Run("should keep the new role when the backend accepts", func(t *testing.T) {
		store := newStore()
		svc := &fakeRoleService{}
		rec := &recorder{}
		rc := admin.NewRoleController(store, svc, rec)

		err := rc.ChangeRole(context.Background(), 5, "admin")

		require.NoError(t, err)
		assert.Equal(t, "admin", store.UserRole(5))
		assert.Equal(t, int64(5), svc.lastID)
		assert.Equal(t, "admin", svc.lastRole)
		assert.Len(t, rec.successes, 1)
		assert.Empty(t, rec.failures)
	})

	t.Run("should roll back and notify on failure", func(t *testing.T) {
		store := newStore()
		svc := &fakeRoleService{err: errors.New("connection reset")}
		rec := &recorder{}
		rc := admin.NewRoleController(store, svc, rec)

		err := rc.ChangeRole(context.Background(), 5, "admin")

		require.Error(t, err)
		assert.Equal(t, "viewer", store.UserRole(5))
		require.Len(t, rec.failures, 1)
		assert.Equal(t, "Role update failed", rec.failures[0])
	})

	t.Run("should classify rate limiting", func(t *testing.T) {
		store := newStore()
		svc := &fakeRoleService{err: &api.StatusError{StatusCode: http.StatusTooManyRequests}}
		rec := &recorder{}
		rc := admin.NewRoleController(store, svc, rec)

		err := rc.ChangeRole(context.Background(), 5, "admin")

		require.Error(t, err)
		assert.Equal(t, "viewer", store.UserRole(5))
		require.Len(t, rec.failures, 1)
		assert.Contains(t, rec.failures[0], "Too many requests")
	})

	t.Run("should classify access denial", func(t *testing.T) {
		store := newStore()
		svc := &fakeRoleService{err: &api.StatusError{StatusCode: http.StatusForbidden}}
		rec := &recorder{}
		rc := admin.NewRoleController(store, svc, rec)

		err := rc.ChangeRole(context.Background(), 5, "admin")

		require.Error(t, err)
		require.Len(t, rec.failures, 1)
		assert.Contains(t, rec.failures[0], "permission")
	})

	t.Run("should apply the change before the backend call settles", func(t *testing.T) {
		store := newStore()
		rec := &recorder{}

		observed := ""
		svc := &observingRoleService{onCall: func() {
			observed = store.UserRole(5)
		}}
		rc := admin.NewRoleController(store, svc, rec)

		require.NoError(t, rc.ChangeRole(context.Background(), 5, "admin"))
		assert.Equal(t, "admin", observed)
	})
}

type observingRoleService struct {
	onCall func()
}

func (o *observingRoleService) UpdateUserRole(context.Context, int64, string) error {
	o.onCall()
	return nil
}
