package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validCatalog = `[
	{
		"profile_key": "classe_1",
		"profile_name": "Classe I",
		"tests": [
			{
				"name": "Resistenza conduttore di terra",
				"parameter": "R-PE",
				"is_applied_part_test": false,
				"limits": {"::ST": {"unit": "Ohm", "high_value": 0.3}}
			},
			{
				"name": "Corrente di dispersione parti applicate",
				"parameter": "I-AP",
				"is_applied_part_test": true,
				"limits": {"::CF": {"unit": "uA", "high_value": 50}}
			}
		]
	},
	{
		"profile_key": "classe_2",
		"profile_name": "Classe II",
		"tests": []
	}
]`

func TestLoadProfileCatalog(t *testing.T) {
	catalog, err := LoadProfileCatalog(writeCatalog(t, validCatalog))
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, []string{"classe_1", "classe_2"}, catalog.Keys())

	profile, ok := catalog.Get("classe_1")
	require.True(t, ok)
	assert.Equal(t, "Classe I", profile.Name)
	require.Len(t, profile.Tests, 2)
	assert.True(t, profile.NeedsAppliedParts())

	limit := profile.Tests[0].Limits["::ST"]
	assert.Equal(t, "Ohm", limit.Unit)
	require.NotNil(t, limit.HighValue)
	assert.Equal(t, 0.3, *limit.HighValue)

	byName, ok := catalog.GetByName("Classe II")
	require.True(t, ok)
	assert.False(t, byName.NeedsAppliedParts())

	_, ok = catalog.Get("classe_3")
	assert.False(t, ok)
}

func TestLoadProfileCatalogMissingFile(t *testing.T) {
	_, err := LoadProfileCatalog(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadProfileCatalogMalformedJSON(t *testing.T) {
	_, err := LoadProfileCatalog(writeCatalog(t, "{not json"))
	assert.Error(t, err)
}

func TestLoadProfileCatalogEmpty(t *testing.T) {
	_, err := LoadProfileCatalog(writeCatalog(t, "[]"))
	assert.Error(t, err)
}

func TestLoadProfileCatalogDuplicateKeys(t *testing.T) {
	_, err := LoadProfileCatalog(writeCatalog(t, `[
		{"profile_key": "classe_1", "profile_name": "A", "tests": []},
		{"profile_key": "classe_1", "profile_name": "B", "tests": []}
	]`))
	assert.Error(t, err)
}

func TestLoadProfileCatalogMissingKey(t *testing.T) {
	_, err := LoadProfileCatalog(writeCatalog(t, `[
		{"profile_name": "Senza chiave", "tests": []}
	]`))
	assert.Error(t, err)
}
