package domain

// KeyValueStore is the keyed persistence layer behind the template library.
// Each key holds one whole serialized collection; there is no partial update.
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false when the key was never written.
	Get(key string) (value []byte, ok bool, err error)

	// Put replaces the value stored under key.
	Put(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	Close() error
}

// AssetStore handles template images on local disk.
// Refs are either local paths returned by Store or remote URIs.
type AssetStore interface {
	// Store writes image bytes under key and returns the local path.
	Store(data []byte, key string) (string, error)

	// Load reads a local ref. ok is false for missing files and remote URIs.
	Load(ref string) (data []byte, ok bool, err error)

	// Delete removes a local ref. Remote refs are ignored.
	Delete(ref string) error

	// DeleteTemplate removes the cover and original images written for a template id.
	DeleteTemplate(id string) error

	TotalSize() (int64, error)
	Clear() error
}
