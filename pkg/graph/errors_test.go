package graph

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryForStatus(t *testing.T) {
	cases := []struct {
		status int
		want   Category
	}{
		{http.StatusUnauthorized, CategoryAuth},
		{http.StatusForbidden, CategoryPermission},
		{http.StatusServiceUnavailable, CategoryService},
		{http.StatusBadGateway, CategoryService},
		{http.StatusGatewayTimeout, CategoryService},
		{http.StatusRequestTimeout, CategoryTimeout},
		{http.StatusBadRequest, CategoryOther},
		{http.StatusNotFound, CategoryOther},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, categoryForStatus(tc.status), "status %d", tc.status)
	}
}

func TestNewErrorParsesEnvelope(t *testing.T) {
	body := []byte(`{"error":{"code":"Authorization_IdentityNotFound","message":"The identity of the calling application could not be established."}}`)
	err := newError("t1", http.StatusUnauthorized, body)

	require.Equal(t, "t1", err.TenantID)
	require.Equal(t, CategoryAuth, err.Category)
	require.Equal(t, "Authorization_IdentityNotFound", err.Code)
	require.Contains(t, err.Error(), "401 Unauthorized - tenant t1: Authorization_IdentityNotFound")
}

func TestNewErrorKeepsRawBody(t *testing.T) {
	err := newError("t1", http.StatusServiceUnavailable, []byte("upstream maintenance"))

	require.Empty(t, err.Code)
	require.Equal(t, "upstream maintenance", err.Message)
	require.Equal(t, CategoryService, err.Category)
}

func TestNewErrorTruncatesLongBodies(t *testing.T) {
	long := make([]byte, 2048)
	for i := range long {
		long[i] = 'x'
	}
	err := newError("t1", http.StatusBadRequest, long)
	require.Len(t, err.Message, 512)
}
