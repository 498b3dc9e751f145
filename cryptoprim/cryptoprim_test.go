package cryptoprim

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate test key: %v", err)
	}
	return priv
}

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	p := DefaultProvider{}
	priv := testKey(t)
	ks := p.SHA1([]byte("123456"))

	wrapped, err := p.WrapKey(ks, priv)
	if err != nil {
		t.Fatalf("WrapKey: %v", err)
	}
	got, err := p.UnwrapKey(ks, wrapped)
	if err != nil {
		t.Fatalf("UnwrapKey: %v", err)
	}
	if got.D.Cmp(priv.D) != 0 || got.N.Cmp(priv.N) != 0 {
		t.Fatal("unwrapped key does not match original")
	}
}

func TestUnwrap_WrongKeystringFails(t *testing.T) {
	p := DefaultProvider{}
	priv := testKey(t)
	wrapped, err := p.WrapKey(p.SHA1([]byte("123456")), priv)
	if err != nil {
		t.Fatalf("WrapKey: %v", err)
	}
	if _, err := p.UnwrapKey(p.SHA1([]byte("wrong!")), wrapped); err != ErrUnwrapFailed {
		t.Fatalf("UnwrapKey with wrong keystring = %v, want ErrUnwrapFailed", err)
	}
}

func TestSHA1_Deterministic(t *testing.T) {
	p := DefaultProvider{}
	a := p.SHA1([]byte("123456"))
	b := p.SHA1([]byte("123456"))
	if !bytes.Equal(a[:], b[:]) {
		t.Fatal("SHA1 of same input produced different digests")
	}
	if len(a) != 20 {
		t.Fatalf("keystring length = %d, want 20", len(a))
	}
}

func TestSignAndDecrypt(t *testing.T) {
	p := DefaultProvider{}
	priv := testKey(t)

	digestInfo := bytes.Repeat([]byte{0xAB}, 35)
	sig, err := p.RSASign(priv, digestInfo)
	if err != nil {
		t.Fatalf("RSASign: %v", err)
	}
	if err := rsa.VerifyPKCS1v15(&priv.PublicKey, 0, digestInfo, sig); err != nil {
		t.Fatalf("signature did not verify: %v", err)
	}

	plaintext := []byte("session key material")
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, &priv.PublicKey, plaintext)
	if err != nil {
		t.Fatalf("encrypt test fixture: %v", err)
	}
	decrypted, err := p.RSADecrypt(priv, ciphertext)
	if err != nil {
		t.Fatalf("RSADecrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatal("decrypted plaintext does not match original")
	}
}
