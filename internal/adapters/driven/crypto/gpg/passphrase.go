package gpg

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// Ensure FilePassphraseSource implements the interface.
var _ driven.PassphraseSource = (*FilePassphraseSource)(nil)

// FilePassphraseSource reads passphrases from sidecar files, one per
// key. The passphrase file path is derived by appending ".pass" to the
// key file path unless an explicit mapping exists.
type FilePassphraseSource struct {
	mu    sync.RWMutex
	paths map[string]string
}

// NewFilePassphraseSource creates a passphrase source. The paths map
// links key file paths to passphrase file paths and may be nil.
func NewFilePassphraseSource(paths map[string]string) *FilePassphraseSource {
	return &FilePassphraseSource{paths: paths}
}

// Passphrase reads and trims the passphrase for a key file.
func (s *FilePassphraseSource) Passphrase(keyFile string) (string, error) {
	s.mu.RLock()
	passFile, ok := s.paths[keyFile]
	s.mu.RUnlock()
	if !ok {
		passFile = keyFile + ".pass"
	}

	data, err := os.ReadFile(passFile)
	if err != nil {
		return "", fmt.Errorf("reading passphrase file: %w", err)
	}

	passphrase := strings.TrimSpace(string(data))
	if passphrase == "" {
		return "", fmt.Errorf("passphrase file %s is empty", passFile)
	}
	return passphrase, nil
}
