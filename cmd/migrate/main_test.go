package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownFiles_ReverseOrderOnlyExisting(t *testing.T) {
	exists := func(p string) bool { return p == "migrations/002_overlay_tables.down.sql" }
	assert.Equal(t, []string{"migrations/002_overlay_tables.down.sql"}, downFiles(exists))

	all := func(string) bool { return true }
	assert.Equal(t, []string{
		"migrations/002_overlay_tables.down.sql",
		"migrations/001_init_extensions.down.sql",
	}, downFiles(all))
}

func TestUpFiles_IsCopy(t *testing.T) {
	files := upFiles()
	files[0] = "changed"
	assert.Equal(t, "migrations/001_init_extensions.sql", migrations[0])
}
