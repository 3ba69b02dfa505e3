package services

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

// RuleMatcher resolves the candidate files for one mapping rule and one
// date, and resolves their destination paths.
type RuleMatcher struct {
	fileTypes driven.FileTypeStore
	uploads   driven.UploadStore
	logs      driven.TransferLogStore
}

// NewRuleMatcher creates a rule matcher. fileTypes and uploads may be nil
// when no filetype-matching rules are configured.
func NewRuleMatcher(
	fileTypes driven.FileTypeStore,
	uploads driven.UploadStore,
	logs driven.TransferLogStore,
) *RuleMatcher {
	return &RuleMatcher{
		fileTypes: fileTypes,
		uploads:   uploads,
		logs:      logs,
	}
}

// ResolveCandidates returns the files a rule offers for transfer on a
// date, prior to conflict resolution. Candidates keep directory-listing
// order.
func (m *RuleMatcher) ResolveCandidates(
	ctx context.Context,
	rule domain.MappingRule,
	date time.Time,
) ([]domain.FileDescriptor, error) {
	switch rule.Match.Type {
	case domain.MatchFilename:
		return m.resolveByFilename(rule, date)
	case domain.MatchFileType:
		return m.resolveByFileType(ctx, rule, date)
	default:
		return nil, fmt.Errorf("%w: match type %q", domain.ErrInvalidRule, rule.Match.Type)
	}
}

// resolveByFilename lists the date-expanded source directory
// (non-recursive) and filters by the date-expanded glob pattern,
// case-insensitively.
func (m *RuleMatcher) resolveByFilename(
	rule domain.MappingRule,
	date time.Time,
) ([]domain.FileDescriptor, error) {
	dir := domain.ExpandDateVars(rule.Match.Filename.Directory, date)
	pattern := domain.ExpandDateVars(rule.Match.Filename.Pattern, date)

	re, err := globToRegexp(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceMissing, dir)
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var candidates []domain.FileDescriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !re.MatchString(entry.Name()) {
			continue
		}
		candidates = append(candidates, domain.FileDescriptor{
			FilePath: filepath.Join(dir, entry.Name()),
			Filename: entry.Name(),
			Date:     date,
		})
	}

	logger.Debug("rule %s matched %d of %d entries in %s", rule.ID, len(candidates), len(entries), dir)
	return candidates, nil
}

// resolveByFileType enumerates recorded uploads tagged with the rule's
// file type, keeping only files that still exist on disk and have not
// already appeared in a prior successful transfer for this rule on this
// date.
func (m *RuleMatcher) resolveByFileType(
	ctx context.Context,
	rule domain.MappingRule,
	date time.Time,
) ([]domain.FileDescriptor, error) {
	if m.fileTypes == nil || m.uploads == nil {
		return nil, fmt.Errorf("file type registry not configured")
	}

	fileType, err := m.fileTypes.Get(ctx, rule.Match.FileType.FileTypeRef)
	if err != nil {
		return nil, fmt.Errorf("looking up file type %q: %w", rule.Match.FileType.FileTypeRef, err)
	}

	uploads, err := m.uploads.ListByFileType(ctx, fileType.ID)
	if err != nil {
		return nil, fmt.Errorf("listing uploads for %s: %w", fileType.ID, err)
	}

	var candidates []domain.FileDescriptor
	for _, upload := range uploads {
		if _, err := os.Stat(upload.FilePath); err != nil {
			logger.Debug("upload %s no longer on disk, skipping", upload.FilePath)
			continue
		}
		done, err := m.logs.HasSuccessfulTransfer(ctx, rule.ID, upload.Filename, date)
		if err != nil {
			return nil, fmt.Errorf("checking prior transfers: %w", err)
		}
		if done {
			continue
		}
		candidates = append(candidates, domain.FileDescriptor{
			FilePath: upload.FilePath,
			Filename: upload.Filename,
			Date:     date,
		})
	}

	return candidates, nil
}

// ResolveDestination renders the rule's destination path and filename
// templates for one candidate. Remote paths use forward slashes.
func (m *RuleMatcher) ResolveDestination(
	rule domain.MappingRule,
	date time.Time,
	candidate domain.FileDescriptor,
) string {
	dir := domain.ExpandFileVars(domain.ExpandDateVars(rule.Destination.Path, date), candidate.Filename)
	name := rule.Destination.Filename
	if name == "" {
		name = candidate.Filename
	} else {
		name = domain.ExpandFileVars(domain.ExpandDateVars(name, date), candidate.Filename)
	}
	return path.Join(dir, name)
}

// globToRegexp converts an expanded glob pattern to an anchored,
// case-insensitive regular expression. Regex metacharacters are escaped
// first so literal characters introduced by date expansion stay literal;
// only * and ? act as wildcards.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `.*`)
	escaped = strings.ReplaceAll(escaped, `\?`, `.`)
	return regexp.Compile(`(?i)^` + escaped + `$`)
}
