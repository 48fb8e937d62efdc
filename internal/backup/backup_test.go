package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

func TestMain(m *testing.M) {
	// Cheap scrypt keeps the suite fast; production uses the default.
	SetScryptWorkFactor(10)
	os.Exit(m.Run())
}

const testPhrase = "legal winner thank year wave sausage worth useful legal winner thank yellow"

func TestExportImport_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := NewService(t.TempDir())

	b, path, err := svc.Export([]byte(testPhrase), "lmr1abc", "regtest", []byte("backup pass"))
	require.NoError(t, err)
	require.FileExists(t, path)
	assert.Equal(t, BackupVersion, b.Version)
	assert.Equal(t, "lmr1abc", b.Manifest.WalletAddress)
	assert.Equal(t, "age", b.Manifest.EncryptionMethod)

	secret, manifest, err := svc.Import(path, []byte("backup pass"))
	require.NoError(t, err)
	assert.Equal(t, []byte(testPhrase), secret)
	assert.Equal(t, "regtest", manifest.Network)
}

func TestExport_EmptySecret(t *testing.T) {
	t.Parallel()

	svc := NewService(t.TempDir())
	_, _, err := svc.Export(nil, "lmr1abc", "regtest", []byte("pw"))
	require.ErrorIs(t, err, lumenerr.ErrNoSecret)
}

func TestImport_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := NewService(t.TempDir())
	_, path, err := svc.Export([]byte(testPhrase), "lmr1abc", "regtest", []byte("right"))
	require.NoError(t, err)

	_, _, err = svc.Import(path, []byte("wrong"))
	require.ErrorIs(t, err, lumenerr.ErrDecryptionFailed)
}

func TestImport_MissingFile(t *testing.T) {
	t.Parallel()

	svc := NewService(t.TempDir())
	_, _, err := svc.Import(svc.BackupPath("gone.lumenbak"), []byte("pw"))
	require.ErrorIs(t, err, lumenerr.ErrBackupNotFound)
}

func TestVerify_DetectsTamperedCiphertext(t *testing.T) {
	t.Parallel()

	svc := NewService(t.TempDir())
	_, path, err := svc.Export([]byte(testPhrase), "lmr1abc", "regtest", []byte("pw"))
	require.NoError(t, err)

	// Flip a ciphertext byte without fixing the checksum.
	raw, err := os.ReadFile(path) // #nosec G304 -- test temp file
	require.NoError(t, err)
	var b Backup
	require.NoError(t, json.Unmarshal(raw, &b))
	b.EncryptedData[len(b.EncryptedData)/2] ^= 0xFF
	raw, err = json.Marshal(&b)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = svc.Verify(path)
	require.ErrorIs(t, err, lumenerr.ErrBackupCorrupted)

	// Import refuses before ever prompting age for the password.
	_, _, err = svc.Import(path, []byte("pw"))
	require.ErrorIs(t, err, lumenerr.ErrBackupCorrupted)
}

func TestVerify_ChecksumIntactAfterExport(t *testing.T) {
	t.Parallel()

	svc := NewService(t.TempDir())
	_, path, err := svc.Export([]byte(testPhrase), "lmr1abc", "regtest", []byte("pw"))
	require.NoError(t, err)

	manifest, err := svc.Verify(path)
	require.NoError(t, err)
	assert.Equal(t, "lmr1abc", manifest.WalletAddress)
}

func TestVerify_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	svc := NewService(t.TempDir())
	_, path, err := svc.Export([]byte(testPhrase), "lmr1abc", "regtest", []byte("pw"))
	require.NoError(t, err)

	raw, err := os.ReadFile(path) // #nosec G304 -- test temp file
	require.NoError(t, err)
	var b Backup
	require.NoError(t, json.Unmarshal(raw, &b))
	b.Version = 99
	raw, err = json.Marshal(&b)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = svc.Verify(path)
	require.ErrorIs(t, err, lumenerr.ErrBackupCorrupted)
}

func TestList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := NewService(dir)

	// Empty directory lists nothing.
	names, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	_, _, err = svc.Export([]byte(testPhrase), "lmr1abc", "regtest", []byte("pw"))
	require.NoError(t, err)

	// Stray files with other extensions are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	names, err = svc.List()
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, BackupExtension, filepath.Ext(names[0]))
}

func TestChecksumHelpers(t *testing.T) {
	t.Parallel()

	data := []byte("payload")
	sum := CalculateChecksum(data)
	require.NoError(t, VerifyChecksum(data, sum))
	require.ErrorIs(t, VerifyChecksum([]byte("other"), sum), lumenerr.ErrBackupCorrupted)
}
