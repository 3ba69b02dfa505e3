// Package gpg shells out to the gpg binary for key import and file
// decryption. The command runner is injectable so tests never spawn a
// real process.
package gpg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

// runner executes one gpg invocation and returns combined output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Ensure Decryptor implements the interface.
var _ driven.Decryptor = (*Decryptor)(nil)

// Decryptor is a gpg-backed implementation of driven.Decryptor.
type Decryptor struct {
	binary string
	run    runner
}

// NewDecryptor creates a decryptor using the gpg binary on PATH.
func NewDecryptor() *Decryptor {
	return &Decryptor{binary: "gpg", run: execRunner}
}

// ImportKey loads a key file into the gpg keyring. Importing an already
// present key succeeds.
func (d *Decryptor) ImportKey(ctx context.Context, keyFile, passphrase string) error {
	args := []string{"--batch", "--yes"}
	if passphrase != "" {
		args = append(args, "--pinentry-mode", "loopback", "--passphrase", passphrase)
	}
	args = append(args, "--import", keyFile)

	out, err := d.run(ctx, d.binary, args...)
	if err != nil {
		return fmt.Errorf("importing key %s: %s", filepath.Base(keyFile), gpgError(out, err))
	}
	logger.Debug("gpg: imported key %s", filepath.Base(keyFile))
	return nil
}

// Decrypt writes the plaintext of inputFile into outputDir, named after
// the input with its encryption extension stripped.
func (d *Decryptor) Decrypt(ctx context.Context, inputFile, outputDir, keyFile, passphrase string) error {
	name := filepath.Base(inputFile)
	outputFile := filepath.Join(outputDir, strings.TrimSuffix(name, filepath.Ext(name)))

	args := []string{"--batch", "--yes"}
	if passphrase != "" {
		args = append(args, "--pinentry-mode", "loopback", "--passphrase", passphrase)
	}
	args = append(args, "--output", outputFile, "--decrypt", inputFile)

	out, err := d.run(ctx, d.binary, args...)
	if err != nil {
		return fmt.Errorf("decrypting %s: %s", name, gpgError(out, err))
	}
	return nil
}

// gpgError condenses gpg's output into a single error line.
func gpgError(out []byte, err error) string {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err.Error()
	}
	// Last line usually carries the failure reason
	lines := strings.Split(msg, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
