package googlesheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// CredentialsEnv names the environment variable consulted when no key
// file is given.
const CredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

// ServiceAccountKey holds the fields of a service account JSON key that
// the transport needs.
type ServiceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// NewWithJSONKeyFile creates a transport authenticated by a service account
// key file. An empty path falls back to GOOGLE_APPLICATION_CREDENTIALS.
func NewWithJSONKeyFile(ctx context.Context, config Config, jsonPath string) (*Transport, error) {
	if jsonPath == "" {
		jsonPath = os.Getenv(CredentialsEnv)
		if jsonPath == "" {
			return nil, fmt.Errorf("no JSON key file path provided and %s not set", CredentialsEnv)
		}
	}

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON key file: %w", err)
	}
	return NewWithJSONKeyData(ctx, config, jsonData)
}

// NewWithJSONKeyData creates a transport from the contents of a key file
func NewWithJSONKeyData(ctx context.Context, config Config, jsonData []byte) (*Transport, error) {
	if _, err := ParseServiceAccountJSON(jsonData); err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, jsonData, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return NewTransport(ctx, config, option.WithCredentials(creds))
}

// NewWithServiceAccountKey creates a transport from an email and PEM key
func NewWithServiceAccountKey(ctx context.Context, config Config, email string, privateKey string) (*Transport, error) {
	ts := jwtTokenSource(ctx, &ServiceAccountKey{ClientEmail: email, PrivateKey: privateKey})
	return NewTransport(ctx, config, option.WithTokenSource(ts))
}

// NewWithDefaultCredentials creates a transport using Application Default
// Credentials.
func NewWithDefaultCredentials(ctx context.Context, config Config) (*Transport, error) {
	ts, err := google.DefaultTokenSource(ctx, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to get default token source: %w", err)
	}
	return NewTransport(ctx, config, option.WithTokenSource(ts))
}

// ParseServiceAccountJSON parses and checks a service account key
func ParseServiceAccountJSON(jsonData []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(jsonData, &key); err != nil {
		return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
	}

	if key.Type != "service_account" {
		return nil, fmt.Errorf("invalid key type: %s (expected: service_account)", key.Type)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, fmt.Errorf("missing required fields in service account key")
	}
	return &key, nil
}

// CreateTokenSource builds a token source from a key file path, raw key
// JSON or a parsed *ServiceAccountKey.
func CreateTokenSource(ctx context.Context, credentials interface{}) (oauth2.TokenSource, error) {
	switch cred := credentials.(type) {
	case string:
		jsonData, err := os.ReadFile(cred)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return CreateTokenSource(ctx, jsonData)
	case []byte:
		creds, err := google.CredentialsFromJSON(ctx, cred, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
		return creds.TokenSource, nil
	case *ServiceAccountKey:
		return jwtTokenSource(ctx, cred), nil
	default:
		return nil, fmt.Errorf("unsupported credential type: %T", credentials)
	}
}

func jwtTokenSource(ctx context.Context, key *ServiceAccountKey) oauth2.TokenSource {
	tokenURL := key.TokenURI
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	cfg := &jwt.Config{
		Email:        key.ClientEmail,
		PrivateKey:   []byte(key.PrivateKey),
		PrivateKeyID: key.PrivateKeyID,
		Scopes:       []string{sheets.SpreadsheetsScope},
		TokenURL:     tokenURL,
	}
	return cfg.TokenSource(ctx)
}
