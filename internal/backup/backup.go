package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/store"
)

const timestampLayout = "20060102T150405.000Z"

// ObjectName is "<userID>/<UTC timestamp>.json"; names sort chronologically.
func ObjectName(userID string, at time.Time) string {
	return userID + "/" + at.UTC().Format(timestampLayout) + ".json"
}

// Backup copies the stored state of userID to dest and returns the object name.
func Backup(ctx context.Context, repo store.StateRepository, dest Destination, userID string, now time.Time) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("Backup: user id is required")
	}

	st, err := repo.LoadState(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("Backup: loading state: %w", err)
	}

	data, err := Encode(Archive{Version: ArchiveVersion, UserID: userID, CreatedAt: now.UTC(), State: st})
	if err != nil {
		return "", fmt.Errorf("Backup: %w", err)
	}

	name := ObjectName(userID, now)
	if err := dest.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("Backup: %w", err)
	}
	return name, nil
}

// Latest returns the newest archive name for userID.
func Latest(ctx context.Context, dest Destination, userID string) (string, error) {
	names, err := dest.List(ctx, userID+"/")
	if err != nil {
		return "", fmt.Errorf("Latest: %w", err)
	}
	for i := len(names) - 1; i >= 0; i-- {
		if strings.HasSuffix(names[i], ".json") {
			return names[i], nil
		}
	}
	return "", fmt.Errorf("Latest: no backups for %s: %w", userID, ErrObjectNotFound)
}

// Restore replaces the stored state of userID with the archive at name.
// An empty name restores the latest archive.
func Restore(ctx context.Context, repo store.StateRepository, dest Destination, userID, name string) (*Archive, error) {
	if name == "" {
		latest, err := Latest(ctx, dest, userID)
		if err != nil {
			return nil, fmt.Errorf("Restore: %w", err)
		}
		name = latest
	}

	data, err := dest.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("Restore: %w", err)
	}

	archive, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("Restore: %w", err)
	}
	if archive.UserID != userID {
		return nil, fmt.Errorf("Restore: archive %s belongs to %q, not %q", name, archive.UserID, userID)
	}

	if err := repo.SaveState(ctx, userID, archive.State); err != nil {
		return nil, fmt.Errorf("Restore: saving state: %w", err)
	}
	return archive, nil
}
