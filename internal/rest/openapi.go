package rest

import (
	_ "embed"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ghodss/yaml"
	"github.com/go-chi/chi/v5"

	"github.com/sanLimbu/tasksync/internal"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// NewOpenAPI3 loads the OpenAPI document describing the task JSON API.
func NewOpenAPI3() (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	swagger, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "loader.LoadFromData")
	}

	if err := swagger.Validate(loader.Context); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "swagger.Validate")
	}

	return swagger, nil
}

// RegisterOpenAPI serves the OpenAPI document as JSON and YAML.
func RegisterOpenAPI(r chi.Router) error {
	swagger, err := NewOpenAPI3()
	if err != nil {
		return err
	}

	r.Get("/openapi3.json", func(w http.ResponseWriter, r *http.Request) {
		renderResponse(w, r, swagger, http.StatusOK)
	})

	r.Get("/openapi3.yaml", func(w http.ResponseWriter, r *http.Request) {
		data, err := yaml.Marshal(swagger)
		if err != nil {
			renderErrorResponse(w, r, "internal error",
				internal.WrapErrorf(err, internal.ErrorCodeUnknown, "yaml.Marshal"))
			return
		}

		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)

		_, _ = w.Write(data)
	})

	return nil
}
