// Package cryptoprim binds the core to the cryptographic primitives the
// spec names as external collaborators (RSA sign/decrypt, SHA-1) behind a
// small Provider interface, plus the symmetric keystring wrap/unwrap used to
// encrypt private keys at rest.
//
// Modeled after the teacher's algorithms package: an interface over a
// primitive (AlgorithmSet there, Provider here) plus a struct carrying
// operation inputs/outputs (Variables there, the plain RSA/byte arguments
// here — OpenPGP card operations are simple enough not to need a mirrored
// struct).
package cryptoprim

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Keystring is the SHA-1 digest of a password (spec §3 Glossary).
type Keystring [sha1.Size]byte

// ErrUnwrapFailed is returned when a wrapped private key cannot be opened
// under the supplied keystring — the AEAD authentication tag does not
// verify, which is cryptographically equivalent to "wrong keystring".
var ErrUnwrapFailed = errors.New("cryptoprim: key unwrap failed")

// Provider is the set of cryptographic primitives the core orchestrates but
// does not implement itself (spec §1 "Out of scope", §6 "Crypto interface
// (consumed)"). DefaultProvider binds it to Go's standard library so a real
// hardware RSA/SHA-1 engine can be swapped in without touching the core.
type Provider interface {
	SHA1(data []byte) Keystring
	RSASign(priv *rsa.PrivateKey, digestInfo []byte) ([]byte, error)
	RSADecrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error)
	WrapKey(ks Keystring, priv *rsa.PrivateKey) ([]byte, error)
	UnwrapKey(ks Keystring, wrapped []byte) (*rsa.PrivateKey, error)
}

// DefaultProvider is the stdlib-backed Provider used outside of tests.
type DefaultProvider struct{}

var _ Provider = DefaultProvider{}

// SHA1 computes the keystring digest of a password. The spec mandates SHA-1
// for keystring derivation — it is an OpenPGP Card v2 protocol requirement,
// not a security choice, so it is never silently upgraded (spec §9).
func (DefaultProvider) SHA1(data []byte) Keystring {
	return Keystring(sha1.Sum(data))
}

// RSASign performs the raw private-key signature operation over an
// already-built DigestInfo (or, for INTERNAL AUTHENTICATE, an opaque
// challenge). hash=0 tells crypto/rsa to treat digestInfo as pre-formatted
// rather than wrapping it in another DigestInfo itself.
func (DefaultProvider) RSASign(priv *rsa.PrivateKey, digestInfo []byte) ([]byte, error) {
	return rsa.SignPKCS1v15(rand.Reader, priv, 0, digestInfo)
}

// RSADecrypt performs the PSO-DECIPHER private-key operation. The caller has
// already stripped the leading padding-indicator byte (spec §4.6).
func (DefaultProvider) RSADecrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
}

// WrapKey encrypts an RSA private key at rest under a keystring-derived AES
// key. A PBKDF2-derived key is used instead of the raw 20-byte digest so a
// 20-byte SHA-1 output never ends up also serving as raw AES key material.
func (DefaultProvider) WrapKey(ks Keystring, priv *rsa.PrivateKey) ([]byte, error) {
	gcm, err := newGCM(ks)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	plaintext := x509.MarshalPKCS1PrivateKey(priv)
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// UnwrapKey decrypts and parses a private key wrapped by WrapKey. Failure
// under the wrong keystring surfaces as ErrUnwrapFailed, which callers map
// to the spec's "unwrap fails cryptographically" outcome.
func (DefaultProvider) UnwrapKey(ks Keystring, wrapped []byte) (*rsa.PrivateKey, error) {
	gcm, err := newGCM(ks)
	if err != nil {
		return nil, err
	}
	if len(wrapped) < gcm.NonceSize() {
		return nil, ErrUnwrapFailed
	}
	nonce, ciphertext := wrapped[:gcm.NonceSize()], wrapped[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrUnwrapFailed
	}
	priv, err := x509.ParsePKCS1PrivateKey(plaintext)
	if err != nil {
		return nil, ErrUnwrapFailed
	}
	return priv, nil
}

func newGCM(ks Keystring) (cipher.AEAD, error) {
	key := deriveWrapKey(ks)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// wrapKeySalt separates the wrap-key derivation from any other PBKDF2 use of
// the same keystring, keeping the AES key and the keystring digest
// cryptographically distinct even though both derive from the same digest.
const wrapKeySalt = "pgpcard-keywrap-v1"

// deriveWrapKey expands a 20-byte keystring into a 32-byte AES-256 key via
// PBKDF2-SHA256, the same key-derivation shape the retrieval pack uses for
// turning a password digest into raw AES key material.
func deriveWrapKey(ks Keystring) []byte {
	return pbkdf2.Key(ks[:], []byte(wrapKeySalt), 4096, 32, sha256.New)
}
