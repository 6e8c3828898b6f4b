// Package file persists session material in a single JSON file, optionally
// sealed with a passphrase-derived key.
package file

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
)

const (
	fileVersion = 1
	saltSize    = 16
	nonceSize   = 24
	keySize     = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var (
	ErrDecrypt       = errors.New("token file could not be decrypted")
	ErrVersion       = errors.New("unsupported token file version")
	ErrEmptyFilePath = errors.New("token file path is required")
)

type document struct {
	Version int               `json:"version"`
	Values  map[string]string `json:"values,omitempty"`
	Salt    []byte            `json:"salt,omitempty"`
	Nonce   []byte            `json:"nonce,omitempty"`
	Sealed  []byte            `json:"sealed,omitempty"`
}

// TokenStore keeps every key in memory and rewrites the whole file on each
// change, so a Delete of several keys lands in one rename.
type TokenStore struct {
	path       string
	passphrase []byte

	mu     sync.Mutex
	values map[string]string
	salt   []byte
	key    *[keySize]byte
}

var _ outbound.TokenStore = (*TokenStore)(nil)

// NewTokenStore opens path, creating it lazily on first write. An empty
// passphrase stores the values in clear text.
func NewTokenStore(path, passphrase string) (*TokenStore, error) {
	if path == "" {
		return nil, ErrEmptyFilePath
	}
	s := &TokenStore{
		path:       path,
		passphrase: []byte(passphrase),
		values:     make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TokenStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return "", outbound.ErrTokenNotFound
	}
	return value, nil
}

func (s *TokenStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *TokenStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := s.values[key]; ok {
			removed[key] = v
			delete(s.values, key)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := s.flush(); err != nil {
		for k, v := range removed {
			s.values[k] = v
		}
		return err
	}
	return nil
}

func (s *TokenStore) Close() error {
	return nil
}

func (s *TokenStore) encrypted() bool {
	return len(s.passphrase) > 0
}

func (s *TokenStore) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse token file: %w", err)
	}
	if doc.Version != fileVersion {
		return ErrVersion
	}

	if doc.Sealed == nil {
		if doc.Values != nil {
			s.values = doc.Values
		}
		return nil
	}

	if !s.encrypted() {
		return ErrDecrypt
	}
	if len(doc.Nonce) != nonceSize || len(doc.Salt) != saltSize {
		return ErrDecrypt
	}
	key, err := deriveKey(s.passphrase, doc.Salt)
	if err != nil {
		return err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], doc.Nonce)

	plain, ok := secretbox.Open(nil, doc.Sealed, &nonce, key)
	if !ok {
		return ErrDecrypt
	}
	values := make(map[string]string)
	if err := json.Unmarshal(plain, &values); err != nil {
		return fmt.Errorf("failed to parse decrypted token file: %w", err)
	}

	s.values = values
	s.salt = doc.Salt
	s.key = key
	return nil
}

func (s *TokenStore) flush() error {
	doc := document{Version: fileVersion}

	if s.encrypted() {
		if s.key == nil {
			salt := make([]byte, saltSize)
			if _, err := io.ReadFull(rand.Reader, salt); err != nil {
				return fmt.Errorf("failed to generate salt: %w", err)
			}
			key, err := deriveKey(s.passphrase, salt)
			if err != nil {
				return err
			}
			s.salt, s.key = salt, key
		}

		plain, err := json.Marshal(s.values)
		if err != nil {
			return fmt.Errorf("failed to encode tokens: %w", err)
		}
		var nonce [nonceSize]byte
		if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
			return fmt.Errorf("failed to generate nonce: %w", err)
		}
		doc.Salt = s.salt
		doc.Nonce = nonce[:]
		doc.Sealed = secretbox.Seal(nil, plain, &nonce, s.key)
	} else {
		doc.Values = s.values
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token file: %w", err)
	}
	return writeAtomic(s.path, raw)
}

func deriveKey(passphrase, salt []byte) (*[keySize]byte, error) {
	derived, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], derived)
	return &key, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}
