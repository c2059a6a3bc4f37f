package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPublicPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/readyz", true},
		{"/metrics", true},
		{"/objects/generated-images/generated-1-abc.png", true},
		{"/generate", false},
		{"/api/refine-prompt", false},
		{"/history", false},
		{"/objectsx", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPublicPath(tt.path))
		})
	}
}

func TestRoutePaths(t *testing.T) {
	assert.Equal(t, []string{"/generate", "/api/generate-thumbnail"}, GeneratePaths())
	assert.Equal(t, []string{"/refine", "/api/refine-prompt"}, RefinePaths())
}
