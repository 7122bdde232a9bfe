package model

import (
	"fmt"
	"time"
)

// Role controls what a user may do.
type Role string

const (
	RoleUser   Role = "user"
	RoleBanker Role = "banker"
	RoleAdmin  Role = "admin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleBanker, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q (want user, banker or admin)", s)
}

// User is a row in the users table.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
}

// Severity is the level of an audit log entry.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityError Severity = "ERROR"
)

// LogEntry is one row of the audit log.
type LogEntry struct {
	ID        int64
	Title     string
	Severity  Severity
	Timestamp time.Time
}
