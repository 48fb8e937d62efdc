package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lumenwallet/lumen/internal/vault"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

const (
	// BackupExtension is the file extension for backups.
	BackupExtension = ".lumenbak"

	// BackupDirPermissions is the permission mode for the backup
	// directory.
	BackupDirPermissions = 0o750

	// BackupFilePermissions is the permission mode for backup files.
	BackupFilePermissions = 0o600
)

// Service provides backup export and import.
type Service struct {
	backupDir string
}

// NewService creates a new backup service.
func NewService(backupDir string) *Service {
	return &Service{backupDir: backupDir}
}

// Export writes an encrypted backup of the recovery secret. The secret
// and password should be zeroed by the caller after this call returns.
func (s *Service) Export(secret []byte, address, network string, password []byte) (*Backup, string, error) {
	if len(secret) == 0 {
		return nil, "", lumenerr.ErrNoSecret
	}

	dataJSON, err := json.Marshal(payload{Secret: secret})
	if err != nil {
		return nil, "", fmt.Errorf("serializing backup data: %w", err)
	}
	defer vault.ZeroBytes(dataJSON)

	encryptedData, err := encrypt(dataJSON, string(password))
	if err != nil {
		return nil, "", fmt.Errorf("encrypting backup: %w", err)
	}

	manifest := NewManifest(address, network)
	backup := NewBackup(manifest, encryptedData)

	backupPath, err := s.writeBackup(backup)
	if err != nil {
		return nil, "", fmt.Errorf("writing backup: %w", err)
	}

	return backup, backupPath, nil
}

// Verify verifies a backup file's integrity without decrypting.
func (s *Service) Verify(backupPath string) (*Manifest, error) {
	backup, err := s.readBackup(backupPath)
	if err != nil {
		return nil, err
	}

	if err := backup.Validate(); err != nil {
		return nil, err
	}

	return &backup.Manifest, nil
}

// Import reads a backup and returns the recovery secret. The caller
// owns the returned secret and must zero it after use.
func (s *Service) Import(backupPath string, password []byte) ([]byte, *Manifest, error) {
	backup, err := s.readBackup(backupPath)
	if err != nil {
		return nil, nil, err
	}

	if err := backup.Validate(); err != nil {
		return nil, nil, err
	}

	decrypted, err := decrypt(backup.EncryptedData, string(password))
	if err != nil {
		return nil, nil, lumenerr.ErrDecryptionFailed
	}
	defer vault.ZeroBytes(decrypted)

	var p payload
	if err := json.Unmarshal(decrypted, &p); err != nil {
		return nil, nil, fmt.Errorf("%w: bad payload", lumenerr.ErrBackupCorrupted)
	}
	if len(p.Secret) == 0 {
		return nil, nil, fmt.Errorf("%w: empty secret", lumenerr.ErrBackupCorrupted)
	}

	return p.Secret, &backup.Manifest, nil
}

// List returns all backup files in the backup directory.
func (s *Service) List() ([]string, error) {
	if err := os.MkdirAll(s.backupDir, BackupDirPermissions); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == BackupExtension {
			backups = append(backups, entry.Name())
		}
	}

	return backups, nil
}

// BackupPath returns the path to a backup file.
func (s *Service) BackupPath(filename string) string {
	return filepath.Join(s.backupDir, filename)
}

// writeBackup writes a backup to the backup directory.
func (s *Service) writeBackup(backup *Backup) (string, error) {
	if err := os.MkdirAll(s.backupDir, BackupDirPermissions); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-150405")
	filename := fmt.Sprintf("lumen-%s%s", timestamp, BackupExtension)
	backupPath := filepath.Join(s.backupDir, filename)

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing backup: %w", err)
	}

	if err := os.WriteFile(backupPath, data, BackupFilePermissions); err != nil {
		return "", fmt.Errorf("writing backup file: %w", err)
	}

	return backupPath, nil
}

// readBackup reads a backup from a file.
func (s *Service) readBackup(path string) (*Backup, error) {
	// #nosec G304 -- path is from user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lumenerr.ErrBackupNotFound
		}
		return nil, fmt.Errorf("reading backup file: %w", err)
	}

	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("%w: bad container", lumenerr.ErrBackupCorrupted)
	}

	return &backup, nil
}
