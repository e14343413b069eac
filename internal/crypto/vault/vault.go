// Package vault шифрует банковские реквизиты и строит по ним слепой индекс для поиска на равенство.
package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
)

const minIndexKeyLen = 16

var (
	ErrInvalidKey        = errors.New("[vault] invalid key")
	ErrMalformedCipher   = errors.New("[vault] malformed ciphertext")
	ErrEmptyAccountValue = errors.New("[vault] empty account value")
)

type Vault struct {
	aead     cipher.AEAD
	indexKey []byte
}

// New создает Vault. cipherKey должен быть длиной 32 байта, indexKey не короче 16 байт и отличаться от cipherKey.
func New(cipherKey, indexKey []byte) (*Vault, error) {
	aead, err := chacha20poly1305.NewX(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err.Error())
	}
	if len(indexKey) < minIndexKeyLen || len(indexKey) > blake2b.Size {
		return nil, fmt.Errorf("%w: index key must be %d..%d bytes", ErrInvalidKey, minIndexKeyLen, blake2b.Size)
	}
	if string(indexKey) == string(cipherKey) {
		return nil, fmt.Errorf("%w: index key must differ from cipher key", ErrInvalidKey)
	}
	return &Vault{aead: aead, indexKey: indexKey}, nil
}

// NewFromHex то же, что New, но ключи передаются в hex (так они хранятся в конфигурации).
func NewFromHex(cipherKeyHex, indexKeyHex string) (*Vault, error) {
	cipherKey, err := hex.DecodeString(cipherKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: decode cipher key: %s", ErrInvalidKey, err.Error())
	}
	indexKey, err := hex.DecodeString(indexKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: decode index key: %s", ErrInvalidKey, err.Error())
	}
	return New(cipherKey, indexKey)
}

// Encrypt возвращает nonce || ciphertext.
func (v *Vault) Encrypt(plain string) ([]byte, error) {
	normalized := normalize(plain)
	if normalized == "" {
		return nil, ErrEmptyAccountValue
	}
	nonce := make([]byte, v.aead.NonceSize(), v.aead.NonceSize()+len(normalized)+v.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("[vault] generate nonce: %w", err)
	}
	return v.aead.Seal(nonce, nonce, []byte(normalized), nil), nil
}

func (v *Vault) Decrypt(ciphertext []byte) (string, error) {
	if len(ciphertext) < v.aead.NonceSize()+v.aead.Overhead() {
		return "", ErrMalformedCipher
	}
	nonce, sealed := ciphertext[:v.aead.NonceSize()], ciphertext[v.aead.NonceSize():]
	plain, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedCipher, err.Error())
	}
	return string(plain), nil
}

// BlindIndex детерминированный keyed-хеш нормализованного значения.
func (v *Vault) BlindIndex(plain string) (string, error) {
	normalized := normalize(plain)
	if normalized == "" {
		return "", ErrEmptyAccountValue
	}
	h, err := blake2b.New256(v.indexKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, err.Error())
	}
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Masked расшифровывает номер счета и возвращает его маскированную форму.
func (v *Vault) Masked(ciphertext []byte) (string, error) {
	if len(ciphertext) == 0 {
		return "", nil
	}
	plain, err := v.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return Mask(plain), nil
}

// Mask оставляет видимыми только последние 4 символа.
func Mask(value string) string {
	runes := []rune(normalize(value))
	const visible = 4
	if len(runes) <= visible {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-visible) + string(runes[len(runes)-visible:])
}

func normalize(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, value)
}
