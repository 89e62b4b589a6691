// Package drafts persists in-progress entity drafts that UI collaborators
// keep per project. The tab factory never reads or writes them.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Load when no draft is stored under the key.
var ErrNotFound = errors.New("draft not found")

// Version selects the draft key layout.
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
)

// ParseVersion accepts "", "v1" and "v2". The empty string means V1.
func ParseVersion(s string) (Version, error) {
	switch Version(s) {
	case "", V1:
		return V1, nil
	case V2:
		return V2, nil
	default:
		return "", fmt.Errorf("unknown draft version %q", s)
	}
}

// Key returns the storage key of a project's draft.
func Key(projectID string, v Version) string {
	if v == V2 {
		return "character-draft-v2-" + projectID
	}
	return "character-draft-" + projectID
}

// Draft is an opaque JSON document plus bookkeeping.
type Draft struct {
	Key     string          `json:"key"`
	Data    json.RawMessage `json:"data"`
	SavedAt time.Time       `json:"savedAt"`
}

// Store saves, loads and deletes drafts by key.
type Store interface {
	Save(ctx context.Context, key string, data json.RawMessage) (Draft, error)
	Load(ctx context.Context, key string) (Draft, error)
	Delete(ctx context.Context, key string) error
}

func encode(d Draft) ([]byte, error) {
	return json.Marshal(d)
}

func decode(raw []byte) (Draft, error) {
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decoding draft: %w", err)
	}
	return d, nil
}
