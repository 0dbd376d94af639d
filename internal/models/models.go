package models

import "time"

// User owns repositories, migrations and settings. The premium flag gates
// FULL_MIRROR and LFS_SUPPORT migrations; it is only mutated by the billing
// integration, never by this service.
type User struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	Email        string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string  `gorm:"size:100;not null" json:"-"`
	Name         *string `gorm:"size:255" json:"name,omitempty"`
	FirstName    *string `gorm:"size:100" json:"firstName,omitempty"`
	LastName     *string `gorm:"size:100" json:"lastName,omitempty"`
	CompanyName  *string `gorm:"size:255" json:"companyName,omitempty"`
	IsPremium    bool    `gorm:"not null;default:false" json:"isPremium"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSettings is the per-user configuration bag, created with defaults at
// signup and mutated only by its owner.
type UserSettings struct {
	ID                        string        `gorm:"primaryKey;size:36" json:"id"`
	UserID                    string        `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	Theme                     string        `gorm:"size:20;not null;default:light" json:"theme"`
	Notifications             bool          `gorm:"not null;default:true" json:"notifications"`
	EmailNotifications        bool          `gorm:"not null;default:true" json:"emailNotifications"`
	AutoRetryFailedMigrations bool          `gorm:"not null;default:false" json:"autoRetryFailedMigrations"`
	MaxConcurrentMigrations   int           `gorm:"not null;default:2" json:"maxConcurrentMigrations"`
	DefaultMigrationType      MigrationType `gorm:"size:30;not null;default:CODE_ONLY" json:"defaultMigrationType"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository references an external repository. Identity is (UserID, URL);
// re-adding the same URL updates metadata instead of duplicating. All
// metadata (stars, forks, size) is externally sourced and never recomputed
// locally.
type Repository struct {
	ID          string   `gorm:"primaryKey;size:36" json:"id"`
	UserID      string   `gorm:"size:36;not null;uniqueIndex:idx_repositories_user_url,priority:1" json:"userId"`
	URL         string   `gorm:"size:500;not null;uniqueIndex:idx_repositories_user_url,priority:2" json:"url"`
	Name        string   `gorm:"size:255;not null" json:"name"`
	FullName    string   `gorm:"size:255;not null" json:"fullName"` // owner/name
	Owner       string   `gorm:"size:255;not null" json:"owner"`
	Platform    Platform `gorm:"size:20;not null;index" json:"platform"`
	IsPrivate   bool     `gorm:"not null;default:false" json:"isPrivate"`
	Description *string  `gorm:"size:1000" json:"description,omitempty"`
	Language    *string  `gorm:"size:50" json:"language,omitempty"`
	Stars       int      `gorm:"not null;default:0" json:"stars"`
	Forks       int      `gorm:"not null;default:0" json:"forks"`
	Size        ByteSize `gorm:"not null;default:0" json:"size"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`
}

// Migration is the central entity: a tracked intent to move a repository
// between platforms. Status and progress are advanced exclusively through
// the state machine; Version backs the optimistic lock that serializes
// concurrent state writes.
type Migration struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	UserID      string          `gorm:"size:36;not null;index" json:"userId"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description *string         `gorm:"size:1000" json:"description,omitempty"`
	Status      MigrationStatus `gorm:"size:20;not null;index" json:"status"`
	Type        MigrationType   `gorm:"size:30;not null" json:"type"`
	Progress    int             `gorm:"not null;default:0" json:"progress"` // 0-100

	SourceRepoID   string   `gorm:"size:36;not null" json:"sourceRepoId"`
	TargetRepoID   *string  `gorm:"size:36" json:"targetRepoId,omitempty"`
	SourcePlatform Platform `gorm:"size:20;not null" json:"sourcePlatform"`
	TargetPlatform Platform `gorm:"size:20;not null" json:"targetPlatform"`
	SourceURL      string   `gorm:"size:500;not null" json:"sourceUrl"`
	TargetURL      *string  `gorm:"size:500" json:"targetUrl,omitempty"`

	TotalFiles    int64    `gorm:"not null;default:0" json:"totalFiles"`
	MigratedFiles int64    `gorm:"not null;default:0" json:"migratedFiles"`
	TotalSize     ByteSize `gorm:"not null;default:0" json:"totalSize"`
	MigratedSize  ByteSize `gorm:"not null;default:0" json:"migratedSize"`
	ErrorCount    int      `gorm:"not null;default:0" json:"errorCount"`
	WarningCount  int      `gorm:"not null;default:0" json:"warningCount"`

	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	EstimatedTime *int       `json:"estimatedTime,omitempty"` // minutes
	ActualTime    *int       `json:"actualTime,omitempty"`    // minutes

	Version int64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`

	SourceRepository *Repository `gorm:"foreignKey:SourceRepoID" json:"sourceRepository,omitempty"`
	TargetRepository *Repository `gorm:"foreignKey:TargetRepoID" json:"targetRepository,omitempty"`
}

// MigrationLog is an append-only event stream entry. The auto-increment ID
// doubles as the insertion sequence that breaks timestamp ties, so per-
// migration ordering stays deterministic even when the clock does not
// advance between appends.
type MigrationLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MigrationID string    `gorm:"size:36;not null;index:idx_migration_logs_migration" json:"migrationId"`
	Level       LogLevel  `gorm:"size:10;not null" json:"level"`
	Message     string    `gorm:"size:1000;not null" json:"message"`
	Details     *string   `gorm:"size:4000" json:"details,omitempty"`
	Component   *string   `gorm:"size:100" json:"component,omitempty"`
	Timestamp   time.Time `gorm:"not null;index:idx_migration_logs_migration" json:"timestamp"`
}
