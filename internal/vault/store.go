package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumenwallet/lumen/internal/fileutil"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

const (
	// vaultFileName is the well-known file holding the persisted vault.
	vaultFileName = "vault.lumen"

	// vaultFilePermissions is the permission mode for the vault file.
	vaultFilePermissions = 0o600

	// vaultDirPermissions is the permission mode for the data directory.
	vaultDirPermissions = 0o700
)

// Store owns the single persisted vault envelope on disk. At most one
// envelope exists at a time; it is created at wallet setup and destroyed
// on wallet reset.
type Store struct {
	basePath string
}

// NewStore creates a store rooted at the given data directory.
func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

// Path returns the vault file location.
func (s *Store) Path() string {
	return filepath.Join(s.basePath, vaultFileName)
}

// Exists reports whether a persisted vault is present. Absence means the
// application has no wallet at all.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.Path())
	return err == nil && !info.IsDir()
}

// Save writes the envelope. A vault that already exists is never
// silently overwritten; pass replace for password change and restore.
func (s *Store) Save(env *Envelope, replace bool) error {
	if !replace && s.Exists() {
		return lumenerr.ErrWalletExists
	}

	if err := os.MkdirAll(s.basePath, vaultDirPermissions); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := fileutil.WriteAtomic(s.Path(), []byte(env.Encode()+"\n"), vaultFilePermissions); err != nil {
		return fmt.Errorf("writing vault file: %w", err)
	}

	return nil
}

// Load reads and parses the persisted envelope.
func (s *Store) Load() (*Envelope, error) {
	data, err := os.ReadFile(s.Path()) //nolint:gosec // G304: path is a fixed file under the data dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lumenerr.ErrWalletNotFound
		}
		return nil, fmt.Errorf("reading vault file: %w", err)
	}

	return Decode(strings.TrimSpace(string(data)))
}

// Delete removes the persisted vault. Used on wallet reset; idempotent.
func (s *Store) Delete() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing vault file: %w", err)
	}
	return nil
}
