// Package docs embeds the OpenAPI description of the HTTP API.
package docs

import _ "embed"

// OpenAPI is the API description in YAML
//
//go:embed openapi.yaml
var OpenAPI []byte
