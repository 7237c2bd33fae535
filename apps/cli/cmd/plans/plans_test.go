package plans

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posbill/posbill-saas/platform/go/access"
)

func TestDefaultCatalog(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range DefaultCatalog {
		require.False(t, seen[p.Name], "duplicate plan %s", p.Name)
		seen[p.Name] = true
		require.Positive(t, p.MaxUsers)
		require.Positive(t, p.MaxProducts)
	}

	require.False(t, DefaultCatalog[0].Features["kot"])
	require.Nil(t, DefaultCatalog[len(DefaultCatalog)-1].MaxBillsPerMonth)
}

func TestFormatFeatures(t *testing.T) {
	require.Equal(t, "-", FormatFeatures(access.Plan{}))
	require.Equal(t, "kot,reports", FormatFeatures(access.Plan{Features: map[string]bool{"reports": true, "kot": true, "inventory": false}}))
	require.Equal(t, "unlimited", formatBills(nil))
}
