package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/service"
	"github.com/pageza/homefoods/backend/internal/types"
)

// useSQLite points foodctl at a fresh sqlite file.
func useSQLite(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV", "test")
	t.Setenv("CI", "")
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("HOMEFOODS_CONFIG", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "homefoods.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SECRET", "")
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestUsage(t *testing.T) {
	code, out, _ := runCmd(t)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "walkthrough")

	code, _, errOut := runCmd(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)

	code, out, _ = runCmd(t, "list", "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "--filter")

	code, _, errOut = runCmd(t, "list", "--bogus")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Usage: foodctl list")
}

func TestWalkthrough(t *testing.T) {
	useSQLite(t)

	code, out, errOut := runCmd(t, "walkthrough")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `"name": "Fish Fry"`)
	assert.Contains(t, out, `"name": "Mudha Pappu"`)
	assert.Contains(t, out, `"name": "Pappu Curry"`)

	code, out, _ = runCmd(t, "list", "--count")
	require.Equal(t, 0, code)
	assert.Equal(t, "0\n", out, "the walkthrough removes its dish")
}

func TestImportListExport(t *testing.T) {
	useSQLite(t)
	dir := t.TempDir()

	menu := filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(menu, []byte(`
- name: Fish Fry
  description: Delicious Food
  category: Non Veg
  price: 200
  is_available: true
  rating: 4.5
- name: Mango Pappu
  description: Dal
  category: Veg
  price: 120
  is_available: true
  rating: 4
- name: Paneer Tikka
  description: Smoky
  category: Spicy
  rating: 4
`), 0o644))

	code, out, errOut := runCmd(t, "import", menu)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "imported 2 of 3 food items\n", out)
	assert.Contains(t, errOut, "row 3 (Paneer Tikka): category: Spicy is not supported")

	code, out, errOut = runCmd(t, "list", "--filter", `{"name": {"$regex": "pappu$", "$options": "i"}}`, "--select", "name price")
	require.Equal(t, 0, code, errOut)
	var items []*model.FoodItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Mango Pappu", items[0].Name)

	code, out, _ = runCmd(t, "list", "--sort", "-price", "--limit", "1", "--format", "yaml")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "- id: "), out)
	assert.Contains(t, out, "name: Fish Fry")

	code, _, errOut = runCmd(t, "list", "--filter", `{"colour": "red"}`)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown field")

	snapshot := filepath.Join(dir, "snapshot.json")
	code, _, errOut = runCmd(t, "export", snapshot)
	require.Equal(t, 0, code, errOut)
	data, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &items))
	assert.Len(t, items, 2)

	code, _, errOut = runCmd(t, "import")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "exactly one file")
}

func TestToken(t *testing.T) {
	useSQLite(t)

	code, _, errOut := runCmd(t, "token")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "jwt secret is not configured")

	t.Setenv("JWT_SECRET", "test-secret")
	code, out, errOut := runCmd(t, "token", "--subject", "ops@homefoods")
	require.Equal(t, 0, code, errOut)

	claims, err := service.NewAuthService("test-secret", 0).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops@homefoods", claims.Subject)
	assert.Equal(t, types.RoleAdmin, claims.Role)
}
