package tokenstore

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	apperrors "github.com/fundfolio/go-portfolio-client/internal/errors"
)

// offlineTokenFile is the fixed key: one slot per installation.
const offlineTokenFile = "offline_token"

const (
	keyLen   = 32
	saltLen  = 16
	fileMode = 0o600

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

// FileStore keeps the offline token in an encrypted file under the app's
// data folder. The token is sealed with XChaCha20-Poly1305 under a key
// derived from an installation secret via Argon2id.
type FileStore struct {
	path   string
	secret []byte
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the data folder if needed. secret is the
// installation-scoped key material (e.g. a device keystore entry).
func NewFileStore(dataFolder string, secret []byte) (*FileStore, error) {
	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorage, "[NewFileStore] mkdir (%v)", err)
	}
	return &FileStore{
		path:   filepath.Join(dataFolder, offlineTokenFile),
		secret: secret,
	}, nil
}

// Save seals the token and writes salt||nonce||ciphertext. A fresh salt and
// nonce are generated on every write.
func (s *FileStore) Save(token string) error {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[Save] salt (%v)", err)
	}

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[Save] aead (%v)", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[Save] nonce (%v)", err)
	}

	out := make([]byte, 0, saltLen+len(nonce)+len(token)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(token), nil)...)

	if err := os.WriteFile(s.path, out, fileMode); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[Save] write (%v)", err)
	}
	return nil
}

func (s *FileStore) Retrieve() (string, bool, error) {
	sealed, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrapf(apperrors.ErrStorage, "[Retrieve] read (%v)", err)
	}

	if len(sealed) < saltLen+chacha20poly1305.NonceSizeX {
		return "", false, apperrors.Wrapf(apperrors.ErrStorage, "[Retrieve] sealed token too short")
	}
	salt := sealed[:saltLen]
	nonce := sealed[saltLen : saltLen+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[saltLen+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return "", false, apperrors.Wrapf(apperrors.ErrStorage, "[Retrieve] aead (%v)", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", false, apperrors.Wrapf(apperrors.ErrStorage, "[Retrieve] open (%v)", err)
	}
	return string(plaintext), true, nil
}

func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrapf(apperrors.ErrStorage, "[Remove] remove (%v)", err)
	}
	return nil
}

func (s *FileStore) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.secret, salt, argonTime, argonMemory, argonThreads, keyLen)
}
