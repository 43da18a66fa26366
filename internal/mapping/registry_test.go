package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const targetProfileJSON = `{
  "retailerId": "TARGET",
  "transactionSetCode": "850",
  "description": "Target purchase order mapping",
  "version": "1.2",
  "elementDelimiter": "*",
  "headerMappings": [
    { "segmentId": "BEG", "elementPosition": 3, "targetField": "poNumber", "required": true }
  ],
  "lineMappings": [
    { "segmentId": "PO1", "elementPosition": 7, "targetField": "sku", "required": true, "lineLevel": true }
  ]
}`

const walmartProfileJSON = `{
  "retailerId": "WALMART",
  "transactionSetCode": "850",
  "version": "1.0",
  "headerMappings": [],
  "lineMappings": []
}`

func writeProfileDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadDir_LoadsAllProfiles(t *testing.T) {
	dir := writeProfileDir(t, map[string]string{
		"target-850.json":  targetProfileJSON,
		"walmart-850.json": walmartProfileJSON,
		"notes.txt":        "not a profile",
	})

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"TARGET:850", "WALMART:850"}, reg.Keys())

	profile, ok := reg.Find("TARGET", "850")
	require.True(t, ok)
	assert.Equal(t, "1.2", profile.Version)
	assert.Equal(t, "PO1", profile.LineLoop())
	require.Len(t, profile.HeaderMappings, 1)
	assert.True(t, profile.HeaderMappings[0].Required)
}

func TestFind_LookupIsCaseInsensitive(t *testing.T) {
	dir := writeProfileDir(t, map[string]string{"target-850.json": targetProfileJSON})

	reg, err := LoadDir(dir)
	require.NoError(t, err)

	for _, retailer := range []string{"target", "Target", "TARGET"} {
		_, ok := reg.Find(retailer, "850")
		assert.True(t, ok, "lookup for %q should succeed", retailer)
	}
}

func TestFind_UnknownKey(t *testing.T) {
	dir := writeProfileDir(t, map[string]string{"target-850.json": targetProfileJSON})

	reg, err := LoadDir(dir)
	require.NoError(t, err)

	_, ok := reg.Find("COSTCO", "850")
	assert.False(t, ok)
	_, ok = reg.Find("TARGET", "856")
	assert.False(t, ok)
}

func TestLoadDir_SkipsInvalidFiles(t *testing.T) {
	dir := writeProfileDir(t, map[string]string{
		"target-850.json": targetProfileJSON,
		"broken.json":     `{"retailerId": "BROKEN"`,
		"empty.json":      `{}`,
	})

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"TARGET:850"}, reg.Keys())
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	reg, err := LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, reg.Keys())
}

func TestLoadDir_RepoProfiles(t *testing.T) {
	// The profiles shipped with the gateway must always load.
	reg, err := LoadDir(filepath.Join("..", "..", "mappings"))
	require.NoError(t, err)

	for _, key := range []string{"TARGET:850", "WALMART:850"} {
		assert.Contains(t, reg.Keys(), key)
	}
}
