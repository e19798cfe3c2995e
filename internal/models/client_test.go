package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		client   *ApiClient
		required string
		want     bool
	}{
		{"exact", &ApiClient{IsActive: true, Permissions: []string{"scores:write"}}, "scores:write", true},
		{"other", &ApiClient{IsActive: true, Permissions: []string{"scores:write"}}, "classes:read", false},
		{"prefix wildcard", &ApiClient{IsActive: true, Permissions: []string{"scores:*"}}, "scores:write", true},
		{"prefix wildcard other scope", &ApiClient{IsActive: true, Permissions: []string{"scores:*"}}, "timing:read", false},
		{"global", &ApiClient{IsActive: true, Permissions: []string{"*"}}, "timing:read", true},
		{"inactive", &ApiClient{IsActive: false, Permissions: []string{"*"}}, "timing:read", false},
		{"nil", nil, "timing:read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.client.HasPermission(tt.required))
		})
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "***", MaskKey("short"))
	assert.Equal(t, "k9q_abcd...", MaskKey("k9q_abcdef123"))
}

func TestClassActiveAreas(t *testing.T) {
	c := &Class{Element: "Interior", Level: "Master", AreaCount: 3}
	assert.Equal(t, [3]bool{true, false, false}, c.ActiveAreas())

	c = &Class{Element: "Exterior", Level: "Master", AreaCount: 2}
	assert.Equal(t, [3]bool{true, true, false}, c.ActiveAreas())

	_, err := (&Class{Element: "Exterior", Level: "Master", AreaCount: 5}).AreaConfig()
	assert.Error(t, err)
}
