// Package api describes the ProductShot HTTP surface: route paths and the
// request/response models served by api/handlers.
//
// # API Overview
//
// ProductShot provides a small JSON API for:
//   - Product image generation from a prompt and optional reference photos
//   - Prompt refinement with vision and text fallbacks
//   - Generation history (when a database is configured)
//   - Health monitoring and metrics
//
// # Endpoints
//
//	POST /generate                 (alias /api/generate-thumbnail)
//	POST /refine                   (alias /api/refine-prompt)
//	GET  /history?limit=N
//	GET  /objects/{bucket}/{key}   (memory storage driver only)
//	GET  /health /healthz /ready /readyz /version
//
// POST endpoints answer OPTIONS preflights with 204 and permissive CORS
// headers. Errors are returned as {"error": "..."} with an extra "details"
// field for server-side failures.
//
// # Authentication
//
// Authentication is optional. When API keys are configured, requests must
// carry the X-API-Key header:
//
//	X-API-Key: your-api-key
//
// When a JWT secret or public key is configured, a bearer token is accepted
// instead.
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
//
// # Generating Documentation
//
// Handlers carry swag annotations:
//
//	swag init -g cmd/productshot/main.go -o api --parseDependency --parseInternal
package api
