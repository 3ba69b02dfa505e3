package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// KeyResolver selects the decryption key for a file date and resolves
// the passphrase that belongs to it. The legacy key needs no passphrase;
// the current key's passphrase is read through the injected source.
type KeyResolver struct {
	schedule    domain.KeySchedule
	legacyFile  string
	currentFile string
	passphrases driven.PassphraseSource
}

// NewKeyResolver creates a key resolver over a rotation schedule.
func NewKeyResolver(
	schedule domain.KeySchedule,
	legacyFile, currentFile string,
	passphrases driven.PassphraseSource,
) *KeyResolver {
	return &KeyResolver{
		schedule:    schedule,
		legacyFile:  legacyFile,
		currentFile: currentFile,
		passphrases: passphrases,
	}
}

// KeyFileFor returns the key file that applies to a file date.
func (r *KeyResolver) KeyFileFor(date time.Time) string {
	if r.schedule.KeyFor(date) == domain.KeyLegacy {
		return r.legacyFile
	}
	return r.currentFile
}

// MaterialFor resolves the passphrase for a selected key file. Any key
// identity outside the schedule is a configuration error.
func (r *KeyResolver) MaterialFor(keyFile string) (domain.KeyMaterial, error) {
	switch keyFile {
	case r.legacyFile:
		return domain.KeyMaterial{ID: domain.KeyLegacy, KeyFile: keyFile}, nil
	case r.currentFile:
		passphrase, err := r.passphrases.Passphrase(keyFile)
		if err != nil {
			return domain.KeyMaterial{}, fmt.Errorf("reading passphrase: %w", err)
		}
		return domain.KeyMaterial{
			ID:         domain.KeyCurrent,
			KeyFile:    keyFile,
			Passphrase: passphrase,
		}, nil
	default:
		return domain.KeyMaterial{}, fmt.Errorf("%w: %s", domain.ErrUnknownKey, keyFile)
	}
}

// Resolve selects and fully materialises the key for a file date.
func (r *KeyResolver) Resolve(date time.Time) (domain.KeyMaterial, error) {
	return r.MaterialFor(r.KeyFileFor(date))
}
