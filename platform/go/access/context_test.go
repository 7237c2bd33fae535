package access

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	platformauth "github.com/posbill/posbill-saas/platform/go/auth"
)

func strPtr(s string) *string { return &s }

func TestResolveContext(t *testing.T) {
	userID, tenantID, roleID := uuid.New(), uuid.New(), uuid.New()
	target := uuid.New()

	t.Run("no principal", func(t *testing.T) {
		rc, err := ResolveContext(nil, target)
		require.NoError(t, err)
		require.False(t, rc.Authenticated)
		require.Nil(t, rc.TenantSwitch)
	})

	t.Run("tenant user ignores the switch", func(t *testing.T) {
		rc, err := ResolveContext(&platformauth.Principal{
			ID:       userID.String(),
			TenantID: strPtr(tenantID.String()),
			RoleID:   strPtr(roleID.String()),
		}, target)
		require.NoError(t, err)
		require.True(t, rc.Authenticated)
		require.Equal(t, userID, rc.UserID)
		require.Equal(t, tenantID, *rc.TenantID)
		require.Equal(t, roleID, *rc.RoleID)
		require.Nil(t, rc.TenantSwitch)
	})

	t.Run("super-admin keeps the switch", func(t *testing.T) {
		rc, err := ResolveContext(&platformauth.Principal{ID: userID.String(), IsSuperAdmin: true}, target)
		require.NoError(t, err)
		require.True(t, rc.IsSuperAdmin)
		require.Nil(t, rc.TenantID)
		require.Equal(t, target, *rc.TenantSwitch)
	})

	t.Run("super-admin without switch", func(t *testing.T) {
		rc, err := ResolveContext(&platformauth.Principal{ID: userID.String(), IsSuperAdmin: true}, uuid.Nil)
		require.NoError(t, err)
		require.Nil(t, rc.TenantSwitch)
	})

	t.Run("malformed ids", func(t *testing.T) {
		_, err := ResolveContext(&platformauth.Principal{ID: "uid-1"}, uuid.Nil)
		require.Error(t, err)

		_, err = ResolveContext(&platformauth.Principal{ID: userID.String(), TenantID: strPtr("acme")}, uuid.Nil)
		require.ErrorContains(t, err, "tenant id")

		_, err = ResolveContext(&platformauth.Principal{ID: userID.String(), RoleID: strPtr("cashier")}, uuid.Nil)
		require.ErrorContains(t, err, "role id")
	})
}

func TestRequestContextRoundTrip(t *testing.T) {
	require.False(t, RequestContextFrom(context.Background()).Authenticated)

	rc := RequestContext{Authenticated: true, UserID: uuid.New()}
	ctx := WithRequestContext(context.Background(), rc)
	require.Equal(t, rc, RequestContextFrom(ctx))

	_, ok := DecisionFrom(ctx)
	require.False(t, ok)

	ctx = WithDecision(ctx, Decision{Warning: "Expires in 2 days"})
	d, ok := DecisionFrom(ctx)
	require.True(t, ok)
	require.Equal(t, "Expires in 2 days", d.Warning)
}
