package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dropsync-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

var matchDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func filenameRule(dir, pattern string) domain.MappingRule {
	return domain.MappingRule{
		ID:       "r1",
		Priority: 100,
		Schedule: domain.Schedule{Period: domain.PeriodDaily},
		Match: domain.MatchSpec{
			Type:     domain.MatchFilename,
			Filename: &domain.FilenameMatch{Directory: dir, Pattern: pattern},
		},
		Destination: domain.Destination{Path: "/out", Conflict: domain.ConflictOverwrite},
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0750))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
	}
}

func TestResolveCandidates_FilenameGlob(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "20240315")
	writeFiles(t, dir, "report_20240315.csv", "report_20240315.txt", "other.csv")

	matcher := NewRuleMatcher(nil, nil, nil)
	rule := filenameRule(filepath.Join(root, "{date}"), "report_{date}.*")

	candidates, err := matcher.ResolveCandidates(context.Background(), rule, matchDate)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "report_20240315.csv", candidates[0].Filename)
	assert.Equal(t, "report_20240315.txt", candidates[1].Filename)
}

func TestResolveCandidates_CaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "REPORT_20240315.CSV")

	matcher := NewRuleMatcher(nil, nil, nil)
	rule := filenameRule(dir, "report_{date}.csv")

	candidates, err := matcher.ResolveCandidates(context.Background(), rule, matchDate)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestResolveCandidates_AnchoredMatch(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "report.csv", "old_report.csv", "report.csv.bak")

	matcher := NewRuleMatcher(nil, nil, nil)
	rule := filenameRule(dir, "report.csv")

	candidates, err := matcher.ResolveCandidates(context.Background(), rule, matchDate)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "report.csv", candidates[0].Filename)
}

func TestResolveCandidates_QuestionMarkWildcard(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "part1.csv", "part2.csv", "part12.csv")

	matcher := NewRuleMatcher(nil, nil, nil)
	rule := filenameRule(dir, "part?.csv")

	candidates, err := matcher.ResolveCandidates(context.Background(), rule, matchDate)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestResolveCandidates_RegexMetaIsLiteral(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "report(1).csv", "reportX1Y.csv")

	matcher := NewRuleMatcher(nil, nil, nil)
	rule := filenameRule(dir, "report(1).csv")

	candidates, err := matcher.ResolveCandidates(context.Background(), rule, matchDate)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "report(1).csv", candidates[0].Filename)
}

func TestResolveCandidates_MissingDirectory(t *testing.T) {
	matcher := NewRuleMatcher(nil, nil, nil)
	rule := filenameRule(filepath.Join(t.TempDir(), "gone"), "*.csv")

	_, err := matcher.ResolveCandidates(context.Background(), rule, matchDate)
	assert.ErrorIs(t, err, domain.ErrSourceMissing)
}

func TestResolveCandidates_SubdirectoriesIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "keep.csv")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0750))

	matcher := NewRuleMatcher(nil, nil, nil)
	rule := filenameRule(dir, "*.csv")

	candidates, err := matcher.ResolveCandidates(context.Background(), rule, matchDate)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "keep.csv", candidates[0].Filename)
}

func fileTypeRule(ref string) domain.MappingRule {
	return domain.MappingRule{
		ID:       "ft-rule",
		Priority: 100,
		Schedule: domain.Schedule{Period: domain.PeriodDaily},
		Match: domain.MatchSpec{
			Type:     domain.MatchFileType,
			FileType: &domain.FileTypeMatch{FileTypeRef: ref},
		},
		Destination: domain.Destination{Path: "/out", Conflict: domain.ConflictOverwrite},
	}
}

func TestResolveCandidates_FileType(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFiles(t, dir, "invoice_a.pdf", "invoice_b.pdf")

	fileTypes := memory.NewFileTypeStore()
	fileTypes.Add(domain.FileType{ID: "invoices", Name: "Invoices"})

	uploads := memory.NewUploadStore()
	logs := memory.NewTransferLogStore()

	for _, name := range []string{"invoice_a.pdf", "invoice_b.pdf", "invoice_gone.pdf"} {
		require.NoError(t, uploads.Record(ctx, domain.UploadRecord{
			ID: name, FileTypeID: "invoices",
			FilePath: filepath.Join(dir, name), Filename: name,
			UploadedAt: time.Now().UTC(),
		}))
	}

	// invoice_a already transferred successfully for this rule and date
	require.NoError(t, logs.CreateFileLog(ctx, &domain.FileLog{
		ID: "f1", RuleID: "ft-rule", Date: matchDate,
		Filename: "invoice_a.pdf", Status: domain.FileStatusSuccess,
		TransferredAt: time.Now().UTC(),
	}))

	matcher := NewRuleMatcher(fileTypes, uploads, logs)
	candidates, err := matcher.ResolveCandidates(ctx, fileTypeRule("invoices"), matchDate)
	require.NoError(t, err)

	// invoice_a deduplicated, invoice_gone missing on disk
	require.Len(t, candidates, 1)
	assert.Equal(t, "invoice_b.pdf", candidates[0].Filename)
}

func TestResolveCandidates_FileTypeUnknownRef(t *testing.T) {
	matcher := NewRuleMatcher(memory.NewFileTypeStore(), memory.NewUploadStore(), memory.NewTransferLogStore())

	_, err := matcher.ResolveCandidates(context.Background(), fileTypeRule("nope"), matchDate)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveDestination(t *testing.T) {
	matcher := NewRuleMatcher(nil, nil, nil)
	candidate := domain.FileDescriptor{Filename: "report_20240315.csv"}

	tests := []struct {
		name     string
		dest     domain.Destination
		expected string
	}{
		{
			name:     "keep candidate name",
			dest:     domain.Destination{Path: "/outbound/{Date:YYYY/MM}"},
			expected: "/outbound/2024/03/report_20240315.csv",
		},
		{
			name:     "rename with variables",
			dest:     domain.Destination{Path: "/outbound", Filename: "{baseName}_final.{ext}"},
			expected: "/outbound/report_20240315_final.csv",
		},
		{
			name:     "date in filename",
			dest:     domain.Destination{Path: "/outbound", Filename: "daily_{date}.csv"},
			expected: "/outbound/daily_20240315.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := filenameRule("/in", "*")
			rule.Destination = tt.dest
			assert.Equal(t, tt.expected, matcher.ResolveDestination(rule, matchDate, candidate))
		})
	}
}

func TestGlobToRegexp(t *testing.T) {
	re, err := globToRegexp("report_*.csv")
	require.NoError(t, err)
	assert.True(t, re.MatchString("report_20240315.csv"))
	assert.True(t, re.MatchString("REPORT_x.CSV"))
	assert.False(t, re.MatchString("report_20240315.csv.gpg"))

	// Dots are literal, not any-char
	re, err = globToRegexp("a.csv")
	require.NoError(t, err)
	assert.False(t, re.MatchString("aXcsv"))
}
