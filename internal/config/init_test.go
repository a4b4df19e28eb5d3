package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", DefaultFileName)

	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "conf", "vault"), cfg.Source)
	assert.Equal(t, filepath.Join(dir, "conf", "site", "docs"), cfg.Destination)
	assert.Equal(t, filepath.Join(dir, "conf", "site"), cfg.SiteRoot)
	require.Len(t, cfg.Navigation.NavbarItems, 1)
	assert.Equal(t, "Blog", cfg.Navigation.NavbarItems[0].Label)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	require.NoError(t, Init(path, true))
}
