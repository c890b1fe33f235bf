package database

import (
	"strings"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrations_EmbeddedInit(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)

	first := all[0]
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "init", first.Name)
	assert.Equal(t, "000001_init", first.String())
	assert.Contains(t, first.UpScript, "CREATE TABLE IF NOT EXISTS posts")
	assert.Contains(t, first.DownScript, "DROP TABLE IF EXISTS posts")
}

func TestInitMigration_CascadesFromPosts(t *testing.T) {
	m := GetMigrationByVersion(1)
	require.NotNil(t, m)

	for _, table := range []string{"comments", "likes", "post_tags"} {
		idx := strings.Index(m.UpScript, "CREATE TABLE IF NOT EXISTS "+table)
		require.GreaterOrEqual(t, idx, 0, table)
		assert.Contains(t, m.UpScript[idx:], "REFERENCES posts (id) ON DELETE CASCADE", table)
	}
}

func TestGetMigrationByVersion_Unknown(t *testing.T) {
	assert.Nil(t, GetMigrationByVersion(999999))
}

func TestPendingMigrations(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}

	pending := pendingMigrations([]int{1, 3}, registered)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	assert.Len(t, pendingMigrations(nil, registered), 3)
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}

	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7, 5}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000005, 000007")
}

func TestPersistentModels_IncludesTagging(t *testing.T) {
	var tag, link bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Tag:
			tag = true
		case *models.PostTag:
			link = true
		}
	}
	assert.True(t, tag, "PersistentModels should include Tag")
	assert.True(t, link, "PersistentModels should include PostTag")
}
