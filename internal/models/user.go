package models

import "time"

// User is an account that owns tasks.
type User struct {
	ID           string    `yaml:"id" json:"id"`
	Username     string    `yaml:"username" json:"username"`
	PasswordHash string    `yaml:"password_hash" json:"-"`
	CreatedAt    time.Time `yaml:"created_at" json:"-"`
}

// NewUser creates a user record with an already hashed password.
func NewUser(id, username, passwordHash string, now time.Time) *User {
	return &User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
	}
}

// UsersFile is the on-disk index of accounts.
// This corresponds to <data_dir>/users.yaml.
type UsersFile struct {
	Version int     `yaml:"version"`
	Users   []*User `yaml:"users"`
}

// ClientSession is the CLI's saved login.
// This corresponds to ~/.ontrack/session.yaml.
type ClientSession struct {
	ServerURL string    `yaml:"server_url"`
	Cookie    string    `yaml:"cookie"`
	UserID    string    `yaml:"user_id"`
	Username  string    `yaml:"username"`
	SavedAt   time.Time `yaml:"saved_at"`
}
