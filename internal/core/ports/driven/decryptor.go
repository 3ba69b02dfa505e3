package driven

import "context"

// Decryptor is the external decryption tool. Both calls block on an
// external process and return success or an error message.
type Decryptor interface {
	// ImportKey loads a key into the tool's keyring. Importing is
	// idempotent; the batch processor caches it per run.
	ImportKey(ctx context.Context, keyFile, passphrase string) error

	// Decrypt writes the plaintext of inputFile into outputDir.
	Decrypt(ctx context.Context, inputFile, outputDir, keyFile, passphrase string) error
}

// PassphraseSource reads the passphrase for a key file, trimmed of
// surrounding whitespace.
type PassphraseSource interface {
	Passphrase(keyFile string) (string, error)
}
