// Package backup writes point-in-time copies of a user's state to a
// destination (a local directory or a Cloud Storage bucket) and restores them.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/ledger"
)

// ArchiveVersion is the format version written by Encode.
const ArchiveVersion = 1

// ErrUnsupportedVersion is returned by Decode for archives written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported archive version")

// Archive is the on-disk form of a backup.
type Archive struct {
	Version   int           `json:"version"`
	UserID    string        `json:"userId"`
	CreatedAt time.Time     `json:"createdAt"`
	State     *ledger.State `json:"state"`
}

// Encode renders the archive as indented JSON.
func Encode(a Archive) ([]byte, error) {
	if a.UserID == "" {
		return nil, fmt.Errorf("Encode: user id is required")
	}
	if a.State == nil {
		a.State = ledger.NewState()
	}
	if a.Version == 0 {
		a.Version = ArchiveVersion
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("Encode: marshal: %w", err)
	}
	return data, nil
}

// Decode parses an archive and normalises its state.
func Decode(data []byte) (*Archive, error) {
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("Decode: unmarshal: %w", err)
	}
	if a.Version < 1 || a.Version > ArchiveVersion {
		return nil, fmt.Errorf("Decode: version %d: %w", a.Version, ErrUnsupportedVersion)
	}
	if a.State == nil {
		a.State = ledger.NewState()
	}
	a.State.Normalize()
	return &a, nil
}
