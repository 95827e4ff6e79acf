package config

import (
	"errors"
	"path/filepath"
	"testing"

	"FlyerScraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadSelectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yml")
	sel := models.DefaultSelectors()
	sel.StoreSpan = "p.retailer span.name"

	require.NoError(t, SaveSelectors(path, sel))
	loaded, err := LoadSelectors(path)
	require.NoError(t, err)
	assert.Equal(t, sel, loaded)
	assert.Equal(t, "p.retailer span.name", loaded.StoreSpanSelector())
	assert.Equal(t, sel.Brand+" > span", loaded.BrandSpanSelector())
}

func TestValidateSelectorsMissing(t *testing.T) {
	sel := models.DefaultSelectors()
	sel.Name = ""
	sel.Brand = ""

	var ce *models.ConfigError
	require.True(t, errors.As(ValidateSelectors(sel), &ce))
	assert.Equal(t, []string{models.SelBrand, models.SelName}, ce.Subjects)
}

func TestValidateSelectorsBadFormat(t *testing.T) {
	sel := models.DefaultSelectors()
	sel.DateValid = "p.validity[data-x"

	var ce *models.ConfigError
	require.True(t, errors.As(ValidateSelectors(sel), &ce))
	assert.Equal(t, []string{models.SelDateValid}, ce.Subjects)
	assert.Contains(t, ce.Error(), "bad selector format")
}

func TestLoadSelectorsRejectsInvalidFile(t *testing.T) {
	path := writeFile(t, "selectors.yml", "name: \"h3[\"\n")
	_, err := LoadSelectors(path)

	var ce *models.ConfigError
	assert.True(t, errors.As(err, &ce))
}
