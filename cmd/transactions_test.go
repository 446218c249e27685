package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/pipeline"
)

func TestParseTypeFilter(t *testing.T) {
	for in, want := range map[string]string{
		"income":  "income",
		"Expense": "expense",
		"all":     pipeline.AllTypes,
		" ALL ":   pipeline.AllTypes,
	} {
		got, err := parseTypeFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseTypeFilter("transfer")
	assert.Error(t, err)
}

func TestResolveCategoryID(t *testing.T) {
	cats := []model.Category{{ID: "1", Name: "Housing"}, {ID: "2", Name: "Food"}}
	assert.Equal(t, "2", resolveCategoryID(cats, "food"))
	assert.Equal(t, "1", resolveCategoryID(cats, "1"))
	assert.Equal(t, "7", resolveCategoryID(cats, " 7 "))
}
