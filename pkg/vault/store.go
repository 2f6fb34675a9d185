package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	KEMFile = "kem_ctxt"
	DEMFile = "dem_ctxt"

	dirPerm  = 0o700
	filePerm = 0o600
)

// FileStore keeps the two vault blobs in a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// DefaultDir returns ~/.bedrock.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bedrock"), nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Exists reports whether a KEM blob is present.
func (s *FileStore) Exists() (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, KEMFile))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Save writes both blobs. Each file is written to a temporary name first and then renamed.
func (s *FileStore) Save(kem, dem []byte) error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("vault: create %s: %w", s.dir, err)
	}
	// DEM first, so that a KEM blob never points at a missing DEM blob.
	if err := s.writeFile(DEMFile, dem); err != nil {
		return err
	}
	return s.writeFile(KEMFile, kem)
}

func (s *FileStore) writeFile(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	return nil
}

// Load reads both blobs. A missing vault fails with ErrNoVault.
func (s *FileStore) Load() (kem, dem []byte, err error) {
	kem, err = os.ReadFile(filepath.Join(s.dir, KEMFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("vault: %s: %w", s.dir, ErrNoVault)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("vault: %w", err)
	}
	dem, err = os.ReadFile(filepath.Join(s.dir, DEMFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("vault: %s: %w", s.dir, ErrNoVault)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("vault: %w", err)
	}
	return kem, dem, nil
}
