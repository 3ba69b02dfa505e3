package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// mockRemote implements driven.RemoteStore in memory. Paths in existing
// are treated as present; failUploads maps remote paths to the number of
// upload attempts that should fail before one succeeds.
type mockRemote struct {
	mu          sync.Mutex
	existing    map[string]bool
	uploads     []string
	mkdirs      []string
	existsErr   error
	uploadErr   error
	failUploads map[string]int
	existsCalls []string
}

func newMockRemote() *mockRemote {
	return &mockRemote{
		existing:    make(map[string]bool),
		failUploads: make(map[string]int),
	}
}

func (m *mockRemote) Connect(context.Context) error          { return nil }
func (m *mockRemote) EnsureConnection(context.Context) error { return nil }
func (m *mockRemote) Disconnect() error                      { return nil }

func (m *mockRemote) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls = append(m.existsCalls, path)
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existing[path], nil
}

func (m *mockRemote) List(context.Context, string) ([]driven.RemoteEntry, error) {
	return nil, errors.New("not implemented")
}

func (m *mockRemote) Mkdir(_ context.Context, path string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirs = append(m.mkdirs, path)
	return nil
}

func (m *mockRemote) Upload(_ context.Context, _, remotePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return m.uploadErr
	}
	if remaining := m.failUploads[remotePath]; remaining > 0 {
		m.failUploads[remotePath] = remaining - 1
		return fmt.Errorf("transient failure uploading %s", remotePath)
	}
	m.uploads = append(m.uploads, remotePath)
	m.existing[remotePath] = true
	return nil
}

func (m *mockRemote) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.existing, path)
	return nil
}

func (m *mockRemote) uploadedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.uploads))
	copy(out, m.uploads)
	return out
}

// mockDecryptor implements driven.Decryptor without spawning processes.
type mockDecryptor struct {
	mu        sync.Mutex
	imports   []string
	decrypted []string
	importErr error
	failFiles map[string]error
}

func newMockDecryptor() *mockDecryptor {
	return &mockDecryptor{failFiles: make(map[string]error)}
}

func (m *mockDecryptor) ImportKey(_ context.Context, keyFile, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.importErr != nil {
		return m.importErr
	}
	m.imports = append(m.imports, keyFile)
	return nil
}

func (m *mockDecryptor) Decrypt(_ context.Context, inputFile, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFiles[inputFile]; err != nil {
		return err
	}
	m.decrypted = append(m.decrypted, inputFile)
	return nil
}

// mockPassphrases implements driven.PassphraseSource over a fixed map.
type mockPassphrases struct {
	values map[string]string
	err    error
}

func (m *mockPassphrases) Passphrase(keyFile string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.values[keyFile], nil
}

// progressRecorder captures published progress events.
type progressRecorder struct {
	mu     sync.Mutex
	events []driven.ProgressEvent
}

func (p *progressRecorder) Publish(event driven.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *progressRecorder) all() []driven.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]driven.ProgressEvent, len(p.events))
	copy(out, p.events)
	return out
}
