package setups

import (
	"os"
	"strings"
)

const (
	CredentialsPathEnv = "FIREBASE_CONFIG"
	ProjectEnv         = "GCLOUD_PROJECT"
)

// FirebaseCredentials returns the service account file named by FIREBASE_CONFIG, or nil when the
// application default credentials should be used.
func FirebaseCredentials() *string {
	path, found := os.LookupEnv(CredentialsPathEnv)
	if !found || strings.TrimSpace(path) == "" {
		return nil
	}
	return &path
}

// FirebaseProject returns GCLOUD_PROJECT when set.
func FirebaseProject() string {
	return strings.TrimSpace(os.Getenv(ProjectEnv))
}
