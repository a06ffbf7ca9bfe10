package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing []string
	}{
		{"complete", `{"title":"t","url":"u","category":"c","project":"p"}`, nil},
		{"empty strings count as present", `{"title":"","url":"","category":"","project":""}`, nil},
		{"description is optional", `{"title":"t","url":"u","category":"c","project":"p","description":null}`, nil},
		{"empty body", `{}`, []string{"title", "url", "category", "project"}},
		{"null is missing", `{"title":null,"url":"u","category":"c","project":"p"}`, []string{"title"}},
		{"unknown fields ignored", `{"url":"u","category":"c","user_id":"x"}`, []string{"title", "project"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req LinkRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			err := req.Validate()
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.missing, verr.Fields)
		})
	}
}

func TestCategoryRequestValidate(t *testing.T) {
	var req CategoryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"work","description":"ignored"}`), &req))

	err := req.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"icon", "color"}, verr.Fields)
	assert.EqualError(t, err, "missing required field(s): icon, color")

	require.NoError(t, json.Unmarshal([]byte(`{"icon":"i","color":"#fff"}`), &req))
	assert.NoError(t, req.Validate())
}

func TestLinkWireNames(t *testing.T) {
	data, err := json.Marshal(Link{ID: "id-1", UserID: "u", CreatedAt: "2024-05-01T10:30:00Z"})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"_id": "id-1",
		"user_id": "u",
		"title": "",
		"url": "",
		"category": "",
		"project": "",
		"description": null,
		"created_at": "2024-05-01T10:30:00Z"
	}`, string(data))
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	data, err := json.Marshal(LinksResponse{Links: []Link{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"links":[]}`, string(data))

	data, err = json.Marshal(CategoriesResponse{Categories: []Category{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"categories":[]}`, string(data))
}
