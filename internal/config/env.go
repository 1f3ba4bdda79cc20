package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/joho/godotenv"
)

// Load reads and decodes a pipeline file. Decoding is strict about JSON
// syntax but not about unknown fields, so configs stay forward-compatible.
func Load(path string) (Pipeline, error) {
	var p Pipeline
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("load pipeline: %w", err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("load pipeline %s: %w", path, err)
	}
	return p, nil
}

// LoadEnv loads a .env file into the process environment when one exists.
// Existing environment variables win over file values. A missing file is not
// an error; running without one is the normal deployed case.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// DSNFromEnv assembles the extract-database connection string from the
// environment: DB_URL wins when set, otherwise the string is built from
// DB_HOST, DB_PORT, DB_USER, DB_PASSWORD and DB_NAME.
func DSNFromEnv() (string, error) {
	if dsn := os.Getenv("DB_URL"); dsn != "" {
		return dsn, nil
	}

	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_NAME")
	if host == "" || name == "" {
		return "", fmt.Errorf("database env incomplete: set DB_URL, or DB_HOST and DB_NAME")
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   host + ":" + port,
		Path:   "/" + name,
	}
	if user := os.Getenv("DB_USER"); user != "" {
		if pw := os.Getenv("DB_PASSWORD"); pw != "" {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String(), nil
}
