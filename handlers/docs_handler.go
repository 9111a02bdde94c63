package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>PDF Question Answering API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = () => {
      window.ui = SwaggerUIBundle({ url: "/api-docs/openapi.json", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
`

// DocsHandler serves the OpenAPI description and a Swagger UI page
type DocsHandler struct {
	yamlDoc []byte
	jsonDoc []byte
	logger  *zap.Logger
}

// NewDocsHandler parses the YAML description, stamps info.version and
// prepares the YAML and JSON renderings.
func NewDocsHandler(openAPI []byte, version string, logger *zap.Logger) (*DocsHandler, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(openAPI, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if info, ok := doc["info"].(map[string]interface{}); ok && version != "" {
		info["version"] = version
	}

	yamlDoc, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render openapi yaml: %w", err)
	}
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render openapi json: %w", err)
	}

	return &DocsHandler{
		yamlDoc: yamlDoc,
		jsonDoc: jsonDoc,
		logger:  logger,
	}, nil
}

// HandleUI handles GET /api-docs
func (h *DocsHandler) HandleUI(w http.ResponseWriter, r *http.Request) {
	h.write(w, "text/html; charset=utf-8", []byte(swaggerUIPage))
}

// HandleJSON handles GET /api-docs/openapi.json
func (h *DocsHandler) HandleJSON(w http.ResponseWriter, r *http.Request) {
	h.write(w, "application/json", h.jsonDoc)
}

// HandleYAML handles GET /api-docs/openapi.yaml
func (h *DocsHandler) HandleYAML(w http.ResponseWriter, r *http.Request) {
	h.write(w, "application/yaml", h.yamlDoc)
}

func (h *DocsHandler) write(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write docs response", zap.Error(err))
	}
}
