package tenant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeRegistry(t, `[
		{"tenant_id": "t1", "display_name": "Contoso"},
		{"tenant_id": "t2"}
	]`)

	tenants, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	require.Equal(t, "Contoso", tenants[0].Name())
	require.Equal(t, "t2", tenants[1].Name())
}

func TestLoadRejectsMissingTenantID(t *testing.T) {
	path := writeRegistry(t, `[{"display_name": "No ID"}]`)
	_, err := Load(path)
	require.ErrorContains(t, err, "no tenant_id")
}

func TestLoadRejectsDuplicates(t *testing.T) {
	path := writeRegistry(t, `[{"tenant_id": "t1"}, {"tenant_id": "t1"}]`)
	_, err := Load(path)
	require.ErrorContains(t, err, "twice")
}

func TestLoadRejectsEmptyRegistry(t *testing.T) {
	path := writeRegistry(t, `[]`)
	_, err := Load(path)
	require.ErrorContains(t, err, "no tenants")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
