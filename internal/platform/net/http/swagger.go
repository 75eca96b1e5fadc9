package http

import (
	"encoding/json"
	stdhttp "net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SwaggerOptions configures the docs mount
type SwaggerOptions struct {
	Enabled bool
	// Doc returns the generated OpenAPI document
	Doc func() string
	// ServerURL is used when the document carries no usable servers entry
	ServerURL string
}

// MountSwagger mounts the swagger UI under /docs/ and the spec at /docs/doc.json, if enabled
func MountSwagger(r chi.Router, opt SwaggerOptions) {
	if !opt.Enabled || opt.Doc == nil {
		return
	}
	r.Get("/docs", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		stdhttp.Redirect(w, r, r.URL.Path+"/", stdhttp.StatusPermanentRedirect)
	})
	r.Get("/docs/doc.json", serveDocJSON(opt))
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("doc.json")))
}

func serveDocJSON(opt SwaggerOptions) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(opt.Doc()), &spec); err != nil {
			stdhttp.Error(w, "spec parse error", stdhttp.StatusInternalServerError)
			return
		}
		normalizeSpec(spec, opt.ServerURL)

		w.Header().Set("Cache-Control", "no-store")
		JSON(w, stdhttp.StatusOK, spec)
	}
}

// normalizeSpec downgrades 3.1 to 3.0.3 for the bundled UI and fills in servers
func normalizeSpec(spec map[string]any, serverURL string) {
	if _, ok := spec["swagger"]; ok {
		delete(spec, "swagger")
		spec["openapi"] = "3.0.3"
	}
	if v, ok := spec["openapi"].(string); !ok || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	// not an OAS3 field
	delete(spec, "schemes")

	if servers, ok := spec["servers"].([]any); ok && len(servers) > 0 {
		if first, ok := servers[0].(map[string]any); ok {
			if u, _ := first["url"].(string); u != "" {
				return
			}
		}
	}
	if serverURL != "" {
		spec["servers"] = []any{map[string]any{"url": serverURL}}
	}
}
