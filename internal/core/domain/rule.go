package domain

import "time"

// Period defines how often a mapping rule fires.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAdhoc   Period = "adhoc"
)

// IsValid checks if the period is a known value.
func (p Period) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAdhoc:
		return true
	}
	return false
}

// MatchType selects how a rule discovers candidate files.
type MatchType string

const (
	// MatchFilename matches files in a directory against a glob pattern.
	MatchFilename MatchType = "filename"

	// MatchFileType matches recorded uploads tagged with a registry entry.
	MatchFileType MatchType = "filetype"
)

// IsValid checks if the match type is a known value.
func (t MatchType) IsValid() bool {
	return t == MatchFilename || t == MatchFileType
}

// ConflictPolicy decides what happens when the destination already exists.
type ConflictPolicy string

const (
	ConflictSkip      ConflictPolicy = "skip"
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictRename    ConflictPolicy = "rename"
)

// IsValid checks if the conflict policy is a known value.
func (c ConflictPolicy) IsValid() bool {
	switch c {
	case ConflictSkip, ConflictOverwrite, ConflictRename:
		return true
	}
	return false
}

// Schedule is the period gate for a rule.
// Weekday uses ISO numbering: 1 = Monday .. 7 = Sunday.
// Monthday is 1..31 and only consulted for monthly rules.
type Schedule struct {
	Period   Period `json:"period"`
	Weekday  int    `json:"weekday,omitempty"`
	Monthday int    `json:"monthday,omitempty"`
}

// Due reports whether the schedule fires on the given date.
// Daily and adhoc rules always fire.
func (s Schedule) Due(date time.Time) bool {
	switch s.Period {
	case PeriodWeekly:
		return isoWeekday(date) == s.Weekday
	case PeriodMonthly:
		return date.Day() == s.Monthday
	default:
		return true
	}
}

// isoWeekday converts Go's Sunday-based weekday to ISO 1=Monday..7=Sunday.
func isoWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// FilenameMatch carries the payload for MatchFilename rules.
// Directory and Pattern may both contain date variables.
type FilenameMatch struct {
	Directory string `json:"directory"`
	Pattern   string `json:"pattern"`
}

// FileTypeMatch carries the payload for MatchFileType rules.
// FileTypeRef references an entry in the file-type registry.
type FileTypeMatch struct {
	FileTypeRef string `json:"file_type_ref"`
}

// MatchSpec is a tagged union over the two matching variants.
// Exactly one payload is set, selected by Type.
type MatchSpec struct {
	Type     MatchType      `json:"type"`
	Filename *FilenameMatch `json:"filename,omitempty"`
	FileType *FileTypeMatch `json:"filetype,omitempty"`
}

// Validate checks that the tag and payload agree.
func (m MatchSpec) Validate() error {
	switch m.Type {
	case MatchFilename:
		if m.Filename == nil || m.Filename.Directory == "" || m.Filename.Pattern == "" {
			return ErrInvalidRule
		}
		if m.FileType != nil {
			return ErrInvalidRule
		}
	case MatchFileType:
		if m.FileType == nil || m.FileType.FileTypeRef == "" {
			return ErrInvalidRule
		}
		if m.Filename != nil {
			return ErrInvalidRule
		}
	default:
		return ErrInvalidRule
	}
	return nil
}

// Destination describes where matched files are published.
// Path and Filename may contain date variables plus {baseName} and {ext}.
// An empty Filename keeps the candidate's own name.
type Destination struct {
	Path     string         `json:"path"`
	Filename string         `json:"filename,omitempty"`
	Conflict ConflictPolicy `json:"conflict"`
}

// RetryPolicy bounds re-attempts of the transfer step for one file.
// Attempts counts retries beyond the first try; the zero value disables
// retrying entirely.
type RetryPolicy struct {
	Attempts int           `json:"attempts,omitempty"`
	Delay    time.Duration `json:"delay,omitempty"`
}

// MappingRule is a persisted redistribution policy. Rules are created and
// edited elsewhere; the core only reads them.
type MappingRule struct {
	// ID is the unique identifier for the rule.
	ID string `json:"id"`

	// Description is a human-readable label.
	Description string `json:"description"`

	// Module names the owning business unit.
	Module string `json:"module"`

	// Enabled allows disabling rules without removing them.
	Enabled bool `json:"enabled"`

	// Priority controls evaluation order, 1..1000, higher first.
	Priority int `json:"priority"`

	// Schedule is the period gate.
	Schedule Schedule `json:"schedule"`

	// Match selects and configures candidate discovery.
	Match MatchSpec `json:"match"`

	// Destination is the remote target template.
	Destination Destination `json:"destination"`

	// Retry bounds transfer re-attempts.
	Retry RetryPolicy `json:"retry"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the rule is properly configured.
func (r MappingRule) Validate() error {
	if r.ID == "" {
		return ErrInvalidRule
	}
	if r.Priority < 1 || r.Priority > 1000 {
		return ErrInvalidRule
	}
	if !r.Schedule.Period.IsValid() {
		return ErrInvalidRule
	}
	if r.Schedule.Period == PeriodWeekly && (r.Schedule.Weekday < 1 || r.Schedule.Weekday > 7) {
		return ErrInvalidRule
	}
	if r.Schedule.Period == PeriodMonthly && (r.Schedule.Monthday < 1 || r.Schedule.Monthday > 31) {
		return ErrInvalidRule
	}
	if err := r.Match.Validate(); err != nil {
		return err
	}
	if r.Destination.Path == "" || !r.Destination.Conflict.IsValid() {
		return ErrInvalidRule
	}
	if r.Retry.Attempts < 0 || r.Retry.Delay < 0 {
		return ErrInvalidRule
	}
	return nil
}

// FileType is a registry entry that filetype rules reference.
type FileType struct {
	// ID is the registry key referenced by rules.
	ID string `json:"id"`

	// Name is a human-readable label.
	Name string `json:"name"`

	// Extensions lists the file extensions grouped under this type.
	Extensions []string `json:"extensions,omitempty"`
}

// UploadRecord is a previously-recorded upload tagged with a file type.
// Filetype rules enumerate these instead of listing a directory.
type UploadRecord struct {
	ID         string    `json:"id"`
	FileTypeID string    `json:"file_type_id"`
	FilePath   string    `json:"file_path"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AdhocSyncRecord marks a one-time file as already synchronised for a rule.
// Existence of a synced record is the sole idempotency signal for adhoc
// rules; there is no time-window scoping.
type AdhocSyncRecord struct {
	RuleID   string    `json:"rule_id"`
	Filename string    `json:"filename"`
	Status   string    `json:"status"`
	SyncTime time.Time `json:"sync_time"`
}

// AdhocStatusSynced is the status value recorded after a successful
// adhoc transfer.
const AdhocStatusSynced = "synced"
