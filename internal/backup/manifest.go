// Package backup provides wallet backup export and import. A backup is
// the age-encrypted recovery secret wrapped in a JSON envelope with an
// integrity checksum, so a damaged file is detected before the user is
// asked for a password.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// BackupVersion is the current backup format version.
const BackupVersion = 1

// Backup represents a complete wallet backup.
type Backup struct {
	// Version is the backup format version.
	Version int `json:"version"`

	// Manifest contains backup metadata.
	Manifest Manifest `json:"manifest"`

	// EncryptedData is the age-encrypted wallet payload.
	EncryptedData []byte `json:"encrypted_data"`

	// Checksum is the SHA256 hash of EncryptedData.
	Checksum string `json:"checksum"`
}

// Manifest contains metadata about the backup. It never holds secret
// material.
type Manifest struct {
	// WalletAddress is the primary address of the backed up wallet.
	WalletAddress string `json:"wallet_address"`

	// Network names the ledger network the wallet lives on.
	Network string `json:"network"`

	// CreatedAt is when the backup was created.
	CreatedAt time.Time `json:"created_at"`

	// EncryptionMethod describes the encryption used.
	EncryptionMethod string `json:"encryption_method"`
}

// payload is the decrypted wallet data within a backup.
type payload struct {
	// Secret is the recovery secret.
	Secret []byte `json:"secret"`
}

// NewManifest creates a new backup manifest.
func NewManifest(address, network string) Manifest {
	return Manifest{
		WalletAddress:    address,
		Network:          network,
		CreatedAt:        time.Now().UTC(),
		EncryptionMethod: "age",
	}
}

// CalculateChecksum computes the SHA256 checksum of data.
func CalculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// VerifyChecksum verifies that data matches the expected checksum.
func VerifyChecksum(data []byte, expected string) error {
	actual := CalculateChecksum(data)
	if actual != expected {
		return lumenerr.WithDetails(lumenerr.ErrBackupCorrupted, map[string]string{
			"expected": expected,
			"actual":   actual,
		})
	}
	return nil
}

// NewBackup creates a new backup with the given manifest and encrypted
// data.
func NewBackup(manifest Manifest, encryptedData []byte) *Backup {
	return &Backup{
		Version:       BackupVersion,
		Manifest:      manifest,
		EncryptedData: encryptedData,
		Checksum:      CalculateChecksum(encryptedData),
	}
}

// Validate checks the backup for consistency without decrypting it.
func (b *Backup) Validate() error {
	if b.Version != BackupVersion {
		return lumenerr.Wrap(lumenerr.ErrBackupCorrupted,
			"unsupported version %d", b.Version)
	}

	if b.Manifest.WalletAddress == "" {
		return fmt.Errorf("%w: missing wallet address", lumenerr.ErrBackupCorrupted)
	}

	if len(b.EncryptedData) == 0 {
		return fmt.Errorf("%w: no encrypted data", lumenerr.ErrBackupCorrupted)
	}

	return VerifyChecksum(b.EncryptedData, b.Checksum)
}
