package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	platformauth "github.com/posbill/posbill-saas/platform/go/auth"
	"github.com/posbill/posbill-saas/platform/go/gcp"
)

// buildAuthMiddleware constructs the bearer token middleware for the configured provider.
func buildAuthMiddleware(ctx context.Context, cfg config, logger *zap.Logger) func(http.Handler) http.Handler {
	var verify platformauth.VerifyFunc
	switch cfg.AuthProvider {
	case "firebase":
		fbAuth, err := gcp.InitFirebaseAuth(ctx)
		if err != nil {
			logger.Fatal("init firebase auth", zap.Error(err))
		}
		verify = platformauth.FirebaseTokenVerifier(fbAuth)
	case "jwt":
		if cfg.JWTSecret == "" {
			logger.Fatal("JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
		verify = platformauth.HMACTokenVerifier([]byte(cfg.JWTSecret))
	case "dev":
		logger.Warn("using dev auth middleware; do not use in production")
		verify = platformauth.UnsignedTokenVerifier()
	default:
		logger.Fatal("unsupported auth provider", zap.String("provider", cfg.AuthProvider))
	}

	return platformauth.JWT(verify, platformauth.DefaultPrincipalExtractor)
}
