package refcache

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/ticketguard/faceverify/internal/domain"
)

const indicatorExt = ".ind"

// IndicatorStore persists encrypted cache indicators in client-local storage.
// Blobs carry only timestamps and counts, never descriptors or images, and a
// blob that fails to decrypt is treated as absent.
type IndicatorStore struct {
	dir  string
	aead cipher.AEAD
}

// NewIndicatorStore opens a store rooted at dir, encrypting with the given
// 32-byte key.
func NewIndicatorStore(dir string, key []byte) (*IndicatorStore, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("indicator store key: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("indicator store dir: %w", err)
	}

	return &IndicatorStore{dir: dir, aead: aead}, nil
}

// path derives the blob path from a digest of the user ID so raw IDs never
// appear in filenames.
func (s *IndicatorStore) path(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+indicatorExt)
}

// Save encrypts and writes the indicator for a user.
func (s *IndicatorStore) Save(userID string, ind domain.CacheIndicator) error {
	plaintext, err := json.Marshal(ind)
	if err != nil {
		return fmt.Errorf("marshal indicator: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("indicator nonce: %w", err)
	}

	blob := s.aead.Seal(nonce, nonce, plaintext, nil)
	if err := os.WriteFile(s.path(userID), blob, 0o600); err != nil {
		return fmt.Errorf("write indicator: %w", err)
	}

	return nil
}

// Load reads the indicator for a user. Any failure, including a blob that
// does not decrypt, reports the indicator as absent and removes the file.
func (s *IndicatorStore) Load(userID string) (domain.CacheIndicator, bool) {
	blob, err := os.ReadFile(s.path(userID))
	if err != nil {
		return domain.CacheIndicator{}, false
	}

	if len(blob) < chacha20poly1305.NonceSizeX {
		_ = s.Remove(userID)
		return domain.CacheIndicator{}, false
	}

	nonce, ciphertext := blob[:chacha20poly1305.NonceSizeX], blob[chacha20poly1305.NonceSizeX:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		// Fail closed: an unreadable indicator is no indicator.
		_ = s.Remove(userID)
		return domain.CacheIndicator{}, false
	}

	var ind domain.CacheIndicator
	if err := json.Unmarshal(plaintext, &ind); err != nil {
		_ = s.Remove(userID)
		return domain.CacheIndicator{}, false
	}

	return ind, true
}

// Remove deletes the indicator for a user. Missing files are not an error.
func (s *IndicatorStore) Remove(userID string) error {
	err := os.Remove(s.path(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove indicator: %w", err)
	}
	return nil
}

// RemoveAll deletes every indicator blob in the store.
func (s *IndicatorStore) RemoveAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list indicators: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), indicatorExt) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("remove indicator %s: %w", entry.Name(), err)
		}
	}

	return nil
}
