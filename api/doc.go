// Package api holds the overview documentation of the gateway's HTTP API
// (below) and the types in types.go.
//
// It contains no OpenAPI specification file.
//
// # API Overview
//
// The gateway provides an HTTP API for:
//   - Queries over the semantic and structural backends (/query, and
//     /query/stream over WebSocket)
//   - Clarifying conversations (/conversation and its continue/abort routes)
//   - Feedback on answers (/feedback) and the project list (/projects)
//   - Operational stats (/queue/stats) and health (/health, /healthz, /ready)
//
// # Authentication
//
// Most API endpoints require the shared API key, sent either as the
// X-API-Key header or as a bearer token:
//
//	X-API-Key: your-api-key
//	Authorization: Bearer your-api-key
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
//
// # OpenAPI Specification
//
// No OpenAPI file is checked in and no Swagger UI is served; a specification
// can be generated from the handlers' swag annotations with:
//
//	swag init -g cmd/kbgateway/main.go -o api --parseDependency --parseInternal
package api
