package types

// Bucket names used by the pipeline.
const (
	BucketUserImages      = "user-images"
	BucketGeneratedImages = "generated-images"
)

// GenerationRequest is the body of POST /generate.
// ReferenceImages are raw base64 strings without a data-URL prefix.
type GenerationRequest struct {
	Prompt          string   `json:"prompt"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
}

// GenerationResponse is returned by POST /generate.
type GenerationResponse struct {
	ImageURL      string   `json:"imageUrl"`
	ReferenceURLs []string `json:"referenceUrls,omitempty"`
}

// RefinementRequest is the body of POST /refine.
type RefinementRequest struct {
	Prompt          string   `json:"prompt"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
}

// RefinementResponse is returned by POST /refine.
type RefinementResponse struct {
	RefinedPrompt string `json:"refinedPrompt"`
}

// ErrorResponse is the uniform error body.
// Details is only set for server-side (5xx) failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
