// Package services holds the domain rules sitting between the API surface
// and the store: URL normalization, platform inference, and the migration
// creation workflow.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gitport/gitport/internal/models"
	"github.com/gitport/gitport/internal/storage"
)

var (
	// ErrInvalidURL is returned when a repository URL cannot be parsed.
	ErrInvalidURL = errors.New("invalid repository URL")

	// ErrUnsupportedPlatform is returned when a URL's hostname does not map
	// to a known platform and no hint was supplied.
	ErrUnsupportedPlatform = errors.New("unsupported repository platform")
)

// RepositoryService connects external repositories to a user's account.
type RepositoryService struct {
	store  storage.RepositoryStore
	logger *slog.Logger
}

func NewRepositoryService(store storage.RepositoryStore, logger *slog.Logger) *RepositoryService {
	return &RepositoryService{store: store, logger: logger}
}

// NormalizeURL canonicalizes a repository URL so equivalent spellings key
// to the same identity: trailing slash and ".git" suffix are stripped, the
// hostname is lowercased. Returns ErrInvalidURL for anything that does not
// parse as an absolute http(s) URL.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Path = strings.TrimSuffix(u.Path, ".git")
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

// InferPlatform maps a repository URL's hostname to a platform.
func InferPlatform(normalizedURL string) (models.Platform, error) {
	u, err := url.Parse(normalizedURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com"):
		return models.PlatformGitHub, nil
	case host == "gitlab.com" || strings.HasSuffix(host, ".gitlab.com"):
		return models.PlatformGitLab, nil
	case host == "bitbucket.org" || strings.HasSuffix(host, ".bitbucket.org"):
		return models.PlatformBitbucket, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, host)
	}
}

// splitOwnerRepo derives owner and repository name from the URL path.
func splitOwnerRepo(normalizedURL string) (owner, name string) {
	u, err := url.Parse(normalizedURL)
	if err != nil {
		return "", ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 {
		return parts[0], parts[len(parts)-1]
	}
	if len(parts) == 1 {
		return "", parts[0]
	}
	return "", ""
}

// Connect upserts a repository for the user from a raw URL. The platform is
// taken from the hint when given, otherwise inferred from the hostname.
func (s *RepositoryService) Connect(ctx context.Context, userID, rawURL string, platformHint models.Platform) (*models.Repository, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	platform := platformHint
	if platform == "" {
		platform, err = InferPlatform(normalized)
		if err != nil {
			return nil, err
		}
	}

	owner, name := splitOwnerRepo(normalized)
	if name == "" {
		return nil, fmt.Errorf("%w: missing repository path", ErrInvalidURL)
	}

	fullName := name
	if owner != "" {
		fullName = owner + "/" + name
	}

	repo, err := s.store.UpsertRepository(ctx, &models.Repository{
		UserID:   userID,
		URL:      normalized,
		Name:     name,
		FullName: fullName,
		Owner:    owner,
		Platform: platform,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("repository connected",
		"user_id", userID,
		"repository_id", repo.ID,
		"platform", repo.Platform)
	return repo, nil
}
