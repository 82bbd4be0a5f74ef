package secrets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/filesystem"
	"github.com/arthur-debert/configsync/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVault(t *testing.T) *secrets.Vault {
	t.Helper()
	return secrets.NewVault(filesystem.NewOS(), filepath.Join(t.TempDir(), "data", "key.txt"))
}

func TestEncryptDecrypt(t *testing.T) {
	id, err := secrets.GenerateIdentity()
	require.NoError(t, err)

	plaintext := []byte("machine login example.com password hunter2\n")
	ciphertext, err := secrets.Encrypt(plaintext, id.Recipient())
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "hunter2")

	opened, err := secrets.Decrypt(ciphertext, id)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestDecrypt_WrongRecipient(t *testing.T) {
	alice, err := secrets.GenerateIdentity()
	require.NoError(t, err)
	bob, err := secrets.GenerateIdentity()
	require.NoError(t, err)

	ciphertext, err := secrets.Encrypt([]byte("for alice"), alice.Recipient())
	require.NoError(t, err)

	_, err = secrets.Decrypt(ciphertext, bob)
	require.Error(t, err)
	assert.Equal(t, errors.ErrWrongRecipient, errors.GetErrorCode(err))
}

func TestDecrypt_Malformed(t *testing.T) {
	id, err := secrets.GenerateIdentity()
	require.NoError(t, err)

	_, err = secrets.Decrypt([]byte("not an age file"), id)
	require.Error(t, err)
	assert.Equal(t, errors.ErrMalformedCiphertext, errors.GetErrorCode(err))

	ciphertext, err := secrets.Encrypt([]byte("payload that will be damaged"), id.Recipient())
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xff

	_, err = secrets.Decrypt(ciphertext, id)
	require.Error(t, err)
	assert.Equal(t, errors.ErrMalformedCiphertext, errors.GetErrorCode(err))
}

func TestVault_PersistAndLoad(t *testing.T) {
	vault := newVault(t)
	id, err := secrets.GenerateIdentity()
	require.NoError(t, err)

	require.NoError(t, vault.PersistIdentity(id))

	info, err := os.Stat(vault.KeyPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(vault.KeyPath()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	loaded, err := vault.LoadIdentity()
	require.NoError(t, err)
	assert.Equal(t, id.String(), loaded.String())
	assert.Equal(t, id.Recipient().String(), loaded.Recipient().String())
}

func TestVault_LoadErrors(t *testing.T) {
	vault := newVault(t)

	_, err := vault.LoadIdentity()
	assert.Equal(t, errors.ErrKeyNotFound, errors.GetErrorCode(err))

	require.NoError(t, os.MkdirAll(filepath.Dir(vault.KeyPath()), 0700))
	require.NoError(t, os.WriteFile(vault.KeyPath(), []byte("garbage\n"), 0600))

	_, err = vault.LoadIdentity()
	assert.Equal(t, errors.ErrKeyCorrupt, errors.GetErrorCode(err))
}

func TestVault_Ensure(t *testing.T) {
	vault := newVault(t)

	first, err := vault.Ensure(false)
	require.NoError(t, err)
	assert.Contains(t, first, "age1")

	again, err := vault.Ensure(false)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	replaced, err := vault.Ensure(true)
	require.NoError(t, err)
	assert.NotEqual(t, first, replaced)
}

func TestVault_SealOpen(t *testing.T) {
	vault := newVault(t)
	_, err := vault.Ensure(false)
	require.NoError(t, err)

	ciphertext, err := vault.Seal([]byte("token=abc"))
	require.NoError(t, err)

	plaintext, err := vault.Open(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "token=abc", string(plaintext))
}
