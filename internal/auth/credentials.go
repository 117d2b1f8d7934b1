package auth

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Credentials is the list of accounts allowed to log in. The store holds
// no user table; accounts live in a YAML file (or a single env pair for
// the one-operator case) with bcrypt password hashes.
type Credentials struct {
	users map[string]string // username -> bcrypt hash
}

type credentialsFile struct {
	Users []struct {
		Username     string `yaml:"username"`
		PasswordHash string `yaml:"password_hash"`
	} `yaml:"users"`
}

// LoadCredentials reads the account list from a YAML file.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	c := &Credentials{users: make(map[string]string, len(f.Users))}
	for _, u := range f.Users {
		name := strings.TrimSpace(u.Username)
		if name == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("load credentials: entry with empty username or hash")
		}
		c.users[name] = u.PasswordHash
	}
	return c, nil
}

// SingleUser builds a one-account list from a plaintext password, hashing
// it at startup. Used when only AUTH_USER/AUTH_PASSWORD are configured.
func SingleUser(username, password string) (*Credentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &Credentials{users: map[string]string{username: string(hash)}}, nil
}

// Verify checks a username/password pair against the list.
func (c *Credentials) Verify(username, password string) bool {
	hash, ok := c.users[username]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
