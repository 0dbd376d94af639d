// Package models provides domain types and constants for GitPort.
//
// Status, platform, type and log-level values are closed enums: parse user
// input through the Parse* helpers instead of comparing raw strings.
package models

import "strings"

// Platform identifies a repository hosting platform.
type Platform string

const (
	PlatformGitHub    Platform = "GITHUB"
	PlatformGitLab    Platform = "GITLAB"
	PlatformBitbucket Platform = "BITBUCKET"
)

// ValidPlatforms returns all valid platform values.
func ValidPlatforms() []Platform {
	return []Platform{PlatformGitHub, PlatformGitLab, PlatformBitbucket}
}

// ParsePlatform normalizes and validates a platform string.
func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range ValidPlatforms() {
		if p == v {
			return p, true
		}
	}
	return "", false
}

// MigrationStatus represents the lifecycle state of a migration.
type MigrationStatus string

const (
	StatusPending    MigrationStatus = "PENDING"
	StatusInProgress MigrationStatus = "IN_PROGRESS"
	StatusCompleted  MigrationStatus = "COMPLETED"
	StatusFailed     MigrationStatus = "FAILED"
	StatusPaused     MigrationStatus = "PAUSED"
	StatusCancelled  MigrationStatus = "CANCELLED"
)

// ValidStatuses returns all valid migration status values.
func ValidStatuses() []MigrationStatus {
	return []MigrationStatus{
		StatusPending, StatusInProgress, StatusCompleted,
		StatusFailed, StatusPaused, StatusCancelled,
	}
}

// ParseMigrationStatus normalizes and validates a status string.
func ParseMigrationStatus(s string) (MigrationStatus, bool) {
	st := MigrationStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range ValidStatuses() {
		if st == v {
			return st, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions are permitted.
func (s MigrationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// MigrationType selects the scope of work for a migration.
type MigrationType string

const (
	TypeCodeOnly         MigrationType = "CODE_ONLY"
	TypeWithTags         MigrationType = "WITH_TAGS"
	TypeWithPullRequests MigrationType = "WITH_PULL_REQUESTS"
	TypeFullMirror       MigrationType = "FULL_MIRROR"
	TypeLFSSupport       MigrationType = "LFS_SUPPORT"
)

// ValidMigrationTypes returns all valid migration type values.
func ValidMigrationTypes() []MigrationType {
	return []MigrationType{
		TypeCodeOnly, TypeWithTags, TypeWithPullRequests,
		TypeFullMirror, TypeLFSSupport,
	}
}

// ParseMigrationType normalizes and validates a migration type string.
func ParseMigrationType(s string) (MigrationType, bool) {
	t := MigrationType(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range ValidMigrationTypes() {
		if t == v {
			return t, true
		}
	}
	return "", false
}

// RequiresPremium reports whether the type is gated behind a premium
// entitlement, enforced at migration creation time.
func (t MigrationType) RequiresPremium() bool {
	return t == TypeFullMirror || t == TypeLFSSupport
}

// LogLevel classifies a migration log entry.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
	LogLevelSuccess LogLevel = "SUCCESS"
)

// ValidLogLevels returns all valid log level values.
func ValidLogLevels() []LogLevel {
	return []LogLevel{LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelSuccess}
}

// ParseLogLevel normalizes and validates a log level string.
func ParseLogLevel(s string) (LogLevel, bool) {
	l := LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range ValidLogLevels() {
		if l == v {
			return l, true
		}
	}
	return "", false
}
