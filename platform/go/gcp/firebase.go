package gcp

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/posbill/posbill-saas/platform/go/setups"
	"google.golang.org/api/option"
)

// GetApp creates a Firebase App, using the service account file when one is given.
func GetApp(ctx context.Context, credentialsPath *string) (*firebase.App, error) {
	var cfg *firebase.Config
	if project := setups.FirebaseProject(); project != "" {
		cfg = &firebase.Config{ProjectID: project}
	}

	if credentialsPath != nil {
		return firebase.NewApp(ctx, cfg, option.WithCredentialsFile(*credentialsPath))
	}
	return firebase.NewApp(ctx, cfg)
}

// InitFirebaseAuth initializes the Firebase App and returns the Auth client used to verify ID tokens
// when AUTH_PROVIDER=firebase.
func InitFirebaseAuth(ctx context.Context) (*firebaseauth.Client, error) {
	app, err := GetApp(ctx, setups.FirebaseCredentials())
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	fbAuth, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	return fbAuth, nil
}
