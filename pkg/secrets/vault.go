package secrets

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/arthur-debert/configsync/pkg/types"
)

const (
	keyFileMode = 0600
	keyDirMode  = 0700
)

// GenerateIdentity creates a fresh X25519 keypair
func GenerateIdentity() (*age.X25519Identity, error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEncrypt, "failed to generate identity")
	}
	return id, nil
}

// Encrypt seals plaintext for recipient
func Encrypt(plaintext []byte, recipient age.Recipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEncrypt, "failed to start encryption")
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, errors.Wrap(err, errors.ErrEncrypt, "failed to encrypt")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrEncrypt, "failed to finish encryption")
	}
	return buf.Bytes(), nil
}

// Decrypt opens ciphertext with identity. Ciphertext sealed for another
// recipient fails with ErrWrongRecipient; anything unreadable or tampered
// fails with ErrMalformedCiphertext.
func Decrypt(ciphertext []byte, identity age.Identity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if stderrors.As(err, &noMatch) {
			return nil, errors.Wrap(err, errors.ErrWrongRecipient, "ciphertext is not addressed to this machine")
		}
		return nil, errors.Wrap(err, errors.ErrMalformedCiphertext, "failed to decrypt")
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrMalformedCiphertext, "failed to decrypt")
	}
	return plaintext, nil
}

// Vault holds the machine identity stored at a key file
type Vault struct {
	fs      types.FS
	keyPath string
}

// NewVault returns a vault whose identity lives at keyPath
func NewVault(fs types.FS, keyPath string) *Vault {
	return &Vault{fs: fs, keyPath: keyPath}
}

// KeyPath returns the location of the identity file
func (v *Vault) KeyPath() string {
	return v.keyPath
}

// Exists reports whether an identity file is present
func (v *Vault) Exists() bool {
	_, err := v.fs.Stat(v.keyPath)
	return err == nil
}

// PersistIdentity writes identity to the key file, readable by the owner only
func (v *Vault) PersistIdentity(identity *age.X25519Identity) error {
	dir := filepath.Dir(v.keyPath)
	if err := v.fs.MkdirAll(dir, keyDirMode); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", dir)
	}
	if err := v.fs.Chmod(dir, keyDirMode); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "failed to restrict %s", dir)
	}

	content := identity.String() + "\n"
	if err := v.fs.WriteFile(v.keyPath, []byte(content), keyFileMode); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", v.keyPath)
	}
	// WriteFile keeps the mode of an existing file
	if err := v.fs.Chmod(v.keyPath, keyFileMode); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "failed to restrict %s", v.keyPath)
	}
	return nil
}

// LoadIdentity reads the identity from the key file
func (v *Vault) LoadIdentity() (*age.X25519Identity, error) {
	data, err := v.fs.ReadFile(v.keyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrKeyNotFound, "no key at %s, run 'configsync secrets init' first", v.keyPath).
				WithDetail("path", v.keyPath)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", v.keyPath)
	}

	identity, err := age.ParseX25519Identity(keyLine(string(data)))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrKeyCorrupt, "key at %s is not a valid identity", v.keyPath).
			WithDetail("path", v.keyPath)
	}
	return identity, nil
}

// Recipient returns the public half of the stored identity
func (v *Vault) Recipient() (*age.X25519Recipient, error) {
	identity, err := v.LoadIdentity()
	if err != nil {
		return nil, err
	}
	return identity.Recipient(), nil
}

// Ensure makes sure an identity exists, generating one if needed or if force
// is set, and returns its public recipient string
func (v *Vault) Ensure(force bool) (string, error) {
	logger := logging.GetLogger("secrets")

	if !force && v.Exists() {
		identity, err := v.LoadIdentity()
		if err != nil {
			return "", err
		}
		logger.Info().Str("path", v.keyPath).Msg("Identity already exists")
		return identity.Recipient().String(), nil
	}

	identity, err := GenerateIdentity()
	if err != nil {
		return "", err
	}
	if err := v.PersistIdentity(identity); err != nil {
		return "", err
	}
	logger.Info().Str("path", v.keyPath).Bool("replaced", force).Msg("Generated identity")
	return identity.Recipient().String(), nil
}

// Open decrypts ciphertext with the stored identity
func (v *Vault) Open(ciphertext []byte) ([]byte, error) {
	identity, err := v.LoadIdentity()
	if err != nil {
		return nil, err
	}
	return Decrypt(ciphertext, identity)
}

// Seal encrypts plaintext to the stored identity's own recipient
func (v *Vault) Seal(plaintext []byte) ([]byte, error) {
	recipient, err := v.Recipient()
	if err != nil {
		return nil, err
	}
	return Encrypt(plaintext, recipient)
}

// keyLine returns the first non-comment line of a key file
func keyLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line
	}
	return ""
}
