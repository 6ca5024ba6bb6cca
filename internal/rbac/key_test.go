package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alumnihub/alumnihub/internal/platform/httpx"
)

func TestParsePermissionKey(t *testing.T) {
	cases := []struct {
		raw  string
		want PermissionKey
	}{
		{raw: "news.view", want: PermissionKey{Module: "news", Action: "view"}},
		{raw: " News.Delete ", want: PermissionKey{Module: "news", Action: "delete"}},
		{raw: "finance.ap.view", want: PermissionKey{Module: "finance.ap", Action: "view"}},
		{raw: "user_roles.re-assign", want: PermissionKey{Module: "user_roles", Action: "re-assign"}},
	}
	for _, tc := range cases {
		got, err := ParsePermissionKey(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got)
	}
}

func TestParsePermissionKeyRejects(t *testing.T) {
	for _, raw := range []string{"", "news", ".view", "news.", "news..view", "news.*", "ne ws.view", "news.view!"} {
		_, err := ParsePermissionKey(raw)
		require.ErrorIs(t, err, httpx.ErrValidation, raw)
	}
	assert.Panics(t, func() { MustParsePermissionKey("nope") })
}
