package domain

import "time"

// KeyID identifies a decryption key within the rotation schedule.
type KeyID string

const (
	// KeyLegacy is the key in use before the rotation cutover.
	KeyLegacy KeyID = "legacy"

	// KeyCurrent is the key in use from the cutover onwards.
	KeyCurrent KeyID = "current"
)

// DefaultKeyCutover is the historical rotation date used when the
// configuration does not override it. Files dated strictly before the
// cutover were encrypted with the legacy key.
var DefaultKeyCutover = time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC)

// KeySchedule maps file dates to key identities across a single
// historical cutover.
type KeySchedule struct {
	// Cutover is the rotation date. Dates strictly before it select the
	// legacy key; the cutover date itself already uses the current key.
	Cutover time.Time
}

// NewKeySchedule creates a schedule with the given cutover, falling back
// to DefaultKeyCutover for a zero time.
func NewKeySchedule(cutover time.Time) KeySchedule {
	if cutover.IsZero() {
		cutover = DefaultKeyCutover
	}
	return KeySchedule{Cutover: cutover}
}

// KeyFor selects the key identity for a file date.
func (s KeySchedule) KeyFor(date time.Time) KeyID {
	if dateOnly(date).Before(dateOnly(s.Cutover)) {
		return KeyLegacy
	}
	return KeyCurrent
}

// dateOnly truncates a timestamp to its calendar day in UTC, so the
// cutover comparison ignores times of day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// KeyMaterial is a resolved key file plus the passphrase needed to use
// it. The legacy key has no passphrase.
type KeyMaterial struct {
	ID         KeyID
	KeyFile    string
	Passphrase string
}
