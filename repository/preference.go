package repository

import "context"

// Preference keys mirrored from the browser client's local storage layout.
const (
	KeyUser        = "dealease_user"
	KeyToken       = "dealease_token"
	KeyDemoData    = "dealease_demo_data"
	KeyDemoMode    = "dealease_demo_mode"
	KeyTheme       = "dealease_theme"
	KeyCompactMode = "dealease_compact_mode"
)

// PreferenceRepository is a per-user string key/value store.
type PreferenceRepository interface {
	Get(ctx context.Context, userID, key string) (string, error)
	Set(ctx context.Context, userID, key, value string) error
	Delete(ctx context.Context, userID, key string) error
	Clear(ctx context.Context, userID string) error
}
