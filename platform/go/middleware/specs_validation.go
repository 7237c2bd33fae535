package middleware

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"

	platformauth "github.com/posbill/posbill-saas/platform/go/auth"
	"github.com/posbill/posbill-saas/platform/go/problem"
)

const bearerScheme = "bearerAuth"

// ValidateAuthenticationViaSwagger satisfies operations that declare bearerAuth: the request must carry a
// Bearer credential. The token itself was already verified by the authentication middleware.
func ValidateAuthenticationViaSwagger(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil || input.SecuritySchemeName != bearerScheme {
		return nil
	}
	r := input.RequestValidationInput.Request
	if r == nil {
		return errors.New("no request in validation input")
	}
	if _, found := platformauth.BearerToken(r); !found {
		return errors.New("missing or invalid Authorization header")
	}
	return nil
}

// RequestValidator checks requests against spec: path and query parameters, JSON bodies and the bearer
// requirement. Failures are written as problem+json.
func RequestValidator(logger *zap.Logger, spec *openapi3.T) func(http.Handler) http.Handler {
	ensureBearerScheme(logger, spec)

	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: ValidateAuthenticationViaSwagger,
		},
		ErrorHandler: writeContractError,
	})
}

func writeContractError(w http.ResponseWriter, message string, statusCode int) {
	switch statusCode {
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", `Bearer realm="posbill"`)
		problem.Write(w, problem.New(statusCode, "Unauthorized", message, problem.TypeUnauthorized, nil))
	case http.StatusNotFound:
		problem.Write(w, problem.New(statusCode, "Resource not found", message, problem.TypeNotFound, nil))
	case http.StatusBadRequest:
		problem.Write(w, problem.New(statusCode, "Invalid request", message, problem.TypeValidation, nil))
	default:
		problem.Write(w, problem.New(statusCode, "Internal server error", message, problem.TypeInternal, nil))
	}
}

func ensureBearerScheme(logger *zap.Logger, spec *openapi3.T) {
	if spec.Components.SecuritySchemes == nil {
		spec.Components.SecuritySchemes = openapi3.SecuritySchemes{}
	}

	if _, ok := spec.Components.SecuritySchemes[bearerScheme]; !ok {
		spec.Components.SecuritySchemes[bearerScheme] = &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{Type: "http", Scheme: "bearer"},
		}
		logger.Warn("injecting default bearerAuth security scheme")
	}

	names := make([]string, 0, len(spec.Components.SecuritySchemes))
	for name := range spec.Components.SecuritySchemes {
		names = append(names, name)
	}
	sort.Strings(names)
	logger.Info("loaded api contract", zap.Strings("security_schemes", names), zap.Int("paths", spec.Paths.Len()))
}
