package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_Unmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		valid   bool
		present bool
	}{
		{`{"v": 45000}`, "45000", true, true},
		{`{"v": "1234.50"}`, "1234.5", true, true},
		{`{"v": " 12 "}`, "12", true, true},
		{`{"v": "n/a"}`, "0", false, true},
		{`{"v": null}`, "0", false, true},
		{`{}`, "0", false, false},
	}
	for _, tt := range tests {
		var got struct {
			V Number `json:"v"`
		}
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.Equal(t, tt.want, got.V.Decimal.String(), tt.in)
		assert.Equal(t, tt.valid, got.V.Valid, tt.in)
		assert.Equal(t, tt.present, got.V.Present, tt.in)
	}
}

func TestCategoryRef_AcceptsNestedAndKey(t *testing.T) {
	var nested, key, missing Transaction
	require.NoError(t, json.Unmarshal([]byte(`{"category":{"id":2,"name":"Payroll"}}`), &nested))
	require.NoError(t, json.Unmarshal([]byte(`{"category":"9"}`), &key))
	require.NoError(t, json.Unmarshal([]byte(`{"category":null}`), &missing))

	assert.True(t, nested.Category.Nested)
	assert.Equal(t, "Payroll", nested.Category.Name)
	assert.False(t, key.Category.Nested)
	assert.Equal(t, FlexID("9"), key.Category.ID)
	assert.Empty(t, missing.Category.ID)
}

func TestLabel_Unmarshal(t *testing.T) {
	var rows []BudgetProgress
	require.NoError(t, json.Unmarshal([]byte(`[
		{"category":"Rent"},
		{"category":{"id":1,"name":"Food"}},
		{"category":null,"category_name":"Travel"}
	]`), &rows))
	assert.Equal(t, Label("Rent"), rows[0].Category)
	assert.Equal(t, Label("Food"), rows[1].Category)
	assert.Equal(t, Label(""), rows[2].Category)
	assert.Equal(t, "Travel", rows[2].CategoryName)
}

func TestFlexID_Marshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A FlexID `json:"a"`
		B FlexID `json:"b"`
	}{A: "12", B: "c-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":12,"b":"c-1"}`, string(b))
}
