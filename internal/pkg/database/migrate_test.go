package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationFiles(t *testing.T) {
	migFS := fstest.MapFS{
		"0002_scores.sql":  {Data: []byte("SELECT 1;")},
		"0001_init.sql":    {Data: []byte("SELECT 1;")},
		"embed.go":         {Data: []byte("package migrations")},
		"README.md":        {Data: []byte("notes")},
		"nested/0003.sql":  {Data: []byte("SELECT 1;")},
		"0010_indexes.SQL": {Data: []byte("SELECT 1;")},
	}

	files, err := listMigrationFiles(migFS)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_scores.sql", "0010_indexes.SQL"}, files)
}
