package auth

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables holding the judge credentials.
const (
	EnvHandle    = "CF_HANDLE"
	EnvAPIKey    = "CF_API_KEY"
	EnvAPISecret = "CF_API_SECRET"
	EnvPassword  = "CF_PASSWORD"
)

// Credentials identify a judge account. Password is only needed by the web
// login form; the API uses the key pair.
type Credentials struct {
	Handle    string
	APIKey    string
	APISecret string
	Password  string
}

// IsComplete reports whether handle, key and secret are all present.
func (c Credentials) IsComplete() bool {
	return len(c.Missing()) == 0
}

// Missing lists the environment names of the required fields that are empty.
func (c Credentials) Missing() []string {
	var missing []string
	if c.Handle == "" {
		missing = append(missing, EnvHandle)
	}
	if c.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.APISecret == "" {
		missing = append(missing, EnvAPISecret)
	}
	return missing
}

// Merge returns c with every non-empty field of override applied.
func (c Credentials) Merge(override Credentials) Credentials {
	if override.Handle != "" {
		c.Handle = override.Handle
	}
	if override.APIKey != "" {
		c.APIKey = override.APIKey
	}
	if override.APISecret != "" {
		c.APISecret = override.APISecret
	}
	if override.Password != "" {
		c.Password = override.Password
	}
	return c
}

// CredentialsFromEnv reads credentials through lookup, usually os.Getenv.
func CredentialsFromEnv(lookup func(string) string) Credentials {
	return Credentials{
		Handle:    lookup(EnvHandle),
		APIKey:    lookup(EnvAPIKey),
		APISecret: lookup(EnvAPISecret),
		Password:  lookup(EnvPassword),
	}
}

// LoadDotEnv loads the given env files (".env" when none) into the process
// environment without overriding variables that are already set. Missing
// files are not an error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return &AuthenticationError{
		Message: err.Error(),
		Cause:   ErrCauseEnvFile,
	}
}

// ReadDotEnv parses an env file without touching the process environment.
func ReadDotEnv(path string) (Credentials, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return Credentials{}, &AuthenticationError{
			Message: err.Error(),
			Cause:   ErrCauseEnvFile,
		}
	}
	return CredentialsFromEnv(func(key string) string { return values[key] }), nil
}

// Load resolves credentials from .env and the environment, then applies
// overrides such as command-line flags.
func Load(override Credentials, envFiles ...string) (Credentials, error) {
	if err := LoadDotEnv(envFiles...); err != nil {
		return Credentials{}, err
	}
	return CredentialsFromEnv(os.Getenv).Merge(override), nil
}

// SaveDotEnv writes creds to an env file readable by Load. Empty fields are
// left out.
func SaveDotEnv(path string, creds Credentials) error {
	values := map[string]string{}
	for key, val := range map[string]string{
		EnvHandle:    creds.Handle,
		EnvAPIKey:    creds.APIKey,
		EnvAPISecret: creds.APISecret,
		EnvPassword:  creds.Password,
	} {
		if val != "" {
			values[key] = val
		}
	}
	if err := godotenv.Write(values, path); err != nil {
		return &AuthenticationError{
			Message: err.Error(),
			Cause:   ErrCauseEnvFile,
		}
	}
	return os.Chmod(path, 0o600)
}
