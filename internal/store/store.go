package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mmcdole/posekit/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Keys of the three persisted slots
const (
	KeyUserTemplates     = "user_templates"
	KeyFavoriteTemplates = "favorite_templates"
	KeyRecentTemplates   = "recent_templates"
)

// DBFile is the database filename inside the data directory
const DBFile = "posekit.db"

var bucketPoses = []byte("posekit")

// KVStore implements domain.KeyValueStore using BoltDB.
type KVStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects cache and gen

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
	// gen counts committed writes; a read only promotes what it saw if no
	// write landed in between
	gen uint64

	afterRead func(key string) // test hook, runs between the bolt read and promotion
}

// Open opens (or creates) the database under dataDir.
// An empty dataDir gives a memory-only store.
func Open(dataDir string) (*KVStore, error) {
	if dataDir == "" {
		// Memory-only mode (no persistence)
		return &KVStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w: %w", domain.ErrServiceUnavailable, err)
	}

	dbPath := filepath.Join(dataDir, DBFile)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w: %w", domain.ErrServiceUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPoses)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w: %w", domain.ErrServiceUnavailable, err)
	}

	return &KVStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *KVStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns a copy of the value stored under key
func (s *KVStore) Get(key string) ([]byte, bool, error) {
	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return clone(data), true, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false, nil
	}

	// Read from BoltDB
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPoses)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w: %w", key, domain.ErrServiceUnavailable, err)
	}

	if s.afterRead != nil {
		s.afterRead(key)
	}

	if data == nil {
		return nil, false, nil
	}

	// Promote to memory cache unless a write committed since the read
	s.mu.Lock()
	if _, cached := s.cache[key]; !cached && s.gen == gen {
		s.cache[key] = data
	}
	s.mu.Unlock()

	return clone(data), true, nil
}

// Put replaces the value under key. The cache is only updated once the
// write has committed.
func (s *KVStore) Put(key string, value []byte) error {
	data := clone(value)

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketPoses).Put([]byte(key), data)
		})
		if err != nil {
			return fmt.Errorf("write %s: %w: %w", key, domain.ErrServiceUnavailable, err)
		}
	}

	s.mu.Lock()
	s.gen++
	s.cache[key] = data
	s.mu.Unlock()
	return nil
}

func (s *KVStore) Delete(key string) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketPoses).Delete([]byte(key))
		})
		if err != nil {
			return fmt.Errorf("delete %s: %w: %w", key, domain.ErrServiceUnavailable, err)
		}
	}

	s.mu.Lock()
	s.gen++
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
