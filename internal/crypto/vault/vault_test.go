package vault

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"
)

type VaultTestSuite struct {
	suite.Suite
	vault *Vault
}

func TestVaultSuite(t *testing.T) {
	suite.Run(t, new(VaultTestSuite))
}

func (s *VaultTestSuite) SetupTest() {
	v, err := New(bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{2}, 32))
	s.Require().NoError(err)
	s.vault = v
}

func (s *VaultTestSuite) TestEncryptDecrypt() {
	ct, err := s.vault.Encrypt("6222 0202 0000 1234")
	s.Require().NoError(err)
	s.NotContains(string(ct), "62220202")

	plain, err := s.vault.Decrypt(ct)
	s.Require().NoError(err)
	s.Equal("6222020200001234", plain)

	// каждый раз новый nonce
	ct2, err := s.vault.Encrypt("6222020200001234")
	s.Require().NoError(err)
	s.NotEqual(ct, ct2)
}

func (s *VaultTestSuite) TestDecryptTampered() {
	ct, err := s.vault.Encrypt("6222020200001234")
	s.Require().NoError(err)
	ct[len(ct)-1] ^= 0xff

	_, err = s.vault.Decrypt(ct)
	s.ErrorIs(err, ErrMalformedCipher)

	_, err = s.vault.Decrypt([]byte{1, 2, 3})
	s.ErrorIs(err, ErrMalformedCipher)
}

func (s *VaultTestSuite) TestBlindIndexIsDeterministic() {
	a, err := s.vault.BlindIndex("6222 0202 0000 1234")
	s.Require().NoError(err)
	b, err := s.vault.BlindIndex("6222020200001234")
	s.Require().NoError(err)
	c, err := s.vault.BlindIndex("6222020200001235")
	s.Require().NoError(err)

	s.Equal(a, b)
	s.NotEqual(a, c)
	s.Len(a, 64)

	_, err = s.vault.BlindIndex("  ")
	s.ErrorIs(err, ErrEmptyAccountValue)
}

func (s *VaultTestSuite) TestMasked() {
	ct, err := s.vault.Encrypt("6222020200001234")
	s.Require().NoError(err)

	masked, err := s.vault.Masked(ct)
	s.Require().NoError(err)
	s.Equal("************1234", masked)

	empty, err := s.vault.Masked(nil)
	s.Require().NoError(err)
	s.Empty(empty)

	s.Equal("***", Mask("123"))
}

func (s *VaultTestSuite) TestInvalidKeys() {
	_, err := New([]byte("short"), bytes.Repeat([]byte{2}, 32))
	s.ErrorIs(err, ErrInvalidKey)

	_, err = New(bytes.Repeat([]byte{1}, 32), []byte("short"))
	s.ErrorIs(err, ErrInvalidKey)

	_, err = New(bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{1}, 32))
	s.ErrorIs(err, ErrInvalidKey)

	_, err = NewFromHex("zz", "00")
	s.ErrorIs(err, ErrInvalidKey)
}
