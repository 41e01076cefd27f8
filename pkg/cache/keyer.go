package cache

// Keyer builds cache keys.
type Keyer interface {
	// WorldKey returns the key for the world id loaded from the source
	// identified by dsn.
	WorldKey(dsn, worldID string) string
}

// DefaultKeyer builds keys of the form "world:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// WorldKey hashes the source and world id so credentials in a DSN never
// appear in a key.
func (DefaultKeyer) WorldKey(dsn, worldID string) string {
	return hashKey("world", dsn, worldID)
}
