package domain

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// filenameDatePattern extracts the first 8-digit run from a filename.
var filenameDatePattern = regexp.MustCompile(`\d{8}`)

// encryptedExtensions mark files that must pass through the decryption
// tool; anything else is copied verbatim.
var encryptedExtensions = map[string]bool{
	".gpg": true,
	".pgp": true,
	".asc": true,
}

// FileDescriptor describes one discovered source file. Transient; never
// persisted.
type FileDescriptor struct {
	// FilePath is the absolute path of the file on disk.
	FilePath string

	// Filename is the base name.
	Filename string

	// Date is the day extracted from the filename's 8-digit token.
	Date time.Time

	// IsEncrypted is derived from the file extension.
	IsEncrypted bool

	// KeyFile is the resolved key for encrypted files, set by the batch
	// processor once the key schedule has been consulted.
	KeyFile string
}

// DescribeFile builds a descriptor for a path, extracting the embedded
// date. Returns false when the filename carries no 8-digit date token;
// such files are ignored by the batch, not treated as errors.
func DescribeFile(path string) (FileDescriptor, bool) {
	name := filepath.Base(path)
	token := filenameDatePattern.FindString(name)
	if token == "" {
		return FileDescriptor{}, false
	}
	date, err := time.Parse(CompactDate, token)
	if err != nil {
		// An 8-digit run that is not a calendar date (e.g. 99999999).
		return FileDescriptor{}, false
	}
	return FileDescriptor{
		FilePath:    path,
		Filename:    name,
		Date:        date,
		IsEncrypted: encryptedExtensions[strings.ToLower(filepath.Ext(name))],
	}, true
}

// DecryptedName strips the encryption extension from an encrypted
// filename. Non-encrypted names pass through unchanged.
func (d FileDescriptor) DecryptedName() string {
	if !d.IsEncrypted {
		return d.Filename
	}
	return strings.TrimSuffix(d.Filename, filepath.Ext(d.Filename))
}
