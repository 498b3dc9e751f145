package card

import (
	"bytes"
	"testing"

	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/apdu"
	"github.com/libretoken/pgpcard/cryptoprim"
	"github.com/libretoken/pgpcard/dostore"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(dostore.New(cryptoprim.DefaultProvider{}), cryptoprim.DefaultProvider{})
}

func sw(resp []byte) apdu.StatusWord {
	n := len(resp)
	return apdu.StatusWord(uint16(resp[n-2])<<8 | uint16(resp[n-1]))
}

func dispatch(t *testing.T, s *Session, raw []byte) []byte {
	t.Helper()
	resp, err := Dispatch(s, raw)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	return resp
}

// Scenario 1: factory select + verify PW1.
func TestScenario_FactorySelectAndVerifyPW1(t *testing.T) {
	s := newTestSession(t)

	selectDF := append([]byte{0x00, 0xA4, 0x04, 0x00, 0x06}, AID[1:]...)
	resp := dispatch(t, s, selectDF)
	if sw(resp) != apdu.Success {
		t.Fatalf("SELECT DF = %v, want SUCCESS", sw(resp))
	}

	verifyPW1 := append([]byte{0x00, 0x20, 0x00, 0x81, 0x06}, []byte("123456")...)
	resp = dispatch(t, s, verifyPW1)
	if sw(resp) != apdu.Success {
		t.Fatalf("VERIFY PW1 = %v, want SUCCESS", sw(resp))
	}
	if !s.ACS.Authorized(acs.FlagPSOCDS) {
		t.Fatal("expected FlagPSOCDS authorized after successful VERIFY")
	}
}

// Scenario 2: PW1 wrong once, blocked after N.
func TestScenario_PW1WrongThenBlocked(t *testing.T) {
	s := newTestSession(t)
	verifyBad := append([]byte{0x00, 0x20, 0x00, 0x81, 0x06}, []byte("bad000")...)

	resp := dispatch(t, s, verifyBad)
	if sw(resp) != apdu.SecurityFailure {
		t.Fatalf("first bad VERIFY = %v, want SECURITY_FAILURE", sw(resp))
	}
	if s.ACS.ErrorCount(acs.PW1) != 1 {
		t.Fatalf("PW_ERR_PW1 = %d, want 1", s.ACS.ErrorCount(acs.PW1))
	}

	for i := 1; i < acs.DefaultMaxAttempts; i++ {
		dispatch(t, s, verifyBad)
	}
	resp = dispatch(t, s, verifyBad)
	if sw(resp) != apdu.AuthBlocked {
		t.Fatalf("VERIFY after threshold = %v, want AUTH_BLOCKED", sw(resp))
	}
}

// Scenario 3: change PW1 with factory default.
func TestScenario_ChangePW1FactoryDefault(t *testing.T) {
	s := newTestSession(t)

	payload := append(append([]byte{}, []byte("123456")...), []byte("abcdefgh")...)
	req := append([]byte{0x00, 0x24, 0x00, 0x81, byte(len(payload))}, payload...)
	resp := dispatch(t, s, req)
	if sw(resp) != apdu.Success {
		t.Fatalf("CHANGE REFERENCE DATA PW1 = %v, want SUCCESS", sw(resp))
	}

	verifyNew := append([]byte{0x00, 0x20, 0x00, 0x81, 0x08}, []byte("abcdefgh")...)
	resp = dispatch(t, s, verifyNew)
	if sw(resp) != apdu.Success {
		t.Fatalf("VERIFY with new PW1 = %v, want SUCCESS", sw(resp))
	}

	s2 := newTestSession(t)
	dispatch(t, s2, req)
	verifyOld := append([]byte{0x00, 0x20, 0x00, 0x81, 0x06}, []byte("123456")...)
	resp = dispatch(t, s2, verifyOld)
	if sw(resp) != apdu.SecurityFailure {
		t.Fatalf("VERIFY with old factory PW1 after change = %v, want SECURITY_FAILURE", sw(resp))
	}
}

// CHANGE REFERENCE DATA PW1 with a private key already wrapped: the new
// password must authenticate afterward and the re-wrapped key must still
// unwrap, not silently revert to the factory keystring.
func TestChangePW1_WithWrappedKey_NewPasswordUsable(t *testing.T) {
	s := newTestSession(t)
	priv := testRSAKey(t)
	factoryKs := s.Crypto.SHA1([]byte("123456"))
	if err := s.Store.SetPrivateKey(dostore.Signing, acs.PW1, factoryKs, priv); err != nil {
		t.Fatalf("SetPrivateKey: %v", err)
	}

	payload := append(append([]byte{}, []byte("123456")...), []byte("abcdefgh")...)
	req := append([]byte{0x00, 0x24, 0x00, 0x81, byte(len(payload))}, payload...)
	resp := dispatch(t, s, req)
	if sw(resp) != apdu.Success {
		t.Fatalf("CHANGE REFERENCE DATA PW1 = %v, want SUCCESS", sw(resp))
	}

	verifyNew := append([]byte{0x00, 0x20, 0x00, 0x81, 0x08}, []byte("abcdefgh")...)
	resp = dispatch(t, s, verifyNew)
	if sw(resp) != apdu.Success {
		t.Fatalf("VERIFY with new PW1 = %v, want SUCCESS", sw(resp))
	}

	verifyOld := append([]byte{0x00, 0x20, 0x00, 0x81, 0x06}, []byte("123456")...)
	resp = dispatch(t, s, verifyOld)
	if sw(resp) != apdu.SecurityFailure {
		t.Fatalf("VERIFY with old factory PW1 after change = %v, want SECURITY_FAILURE", sw(resp))
	}

	digestInfo := bytes.Repeat([]byte{0xCD}, digestInfoLen)
	signReq := append([]byte{0x00, 0x2A, 0x9E, 0x9A, byte(digestInfoLen)}, digestInfo...)
	signReq = append(signReq, 0x00, 0x00, 0x00)
	resp = dispatch(t, s, signReq)
	if sw(resp) != apdu.Success {
		t.Fatalf("PSO-CDS after PW1 change = %v, want SUCCESS (key must unwrap under the new keystring)", sw(resp))
	}
}

// A locked PW3 must reject CHANGE REFERENCE DATA without ever consulting the
// supplied secret, even when the correct old admin password is in the
// payload.
func TestChangePW3_Locked_RejectsWithoutConsultingSecret(t *testing.T) {
	s := newTestSession(t)
	bad := []byte{0x00, 0x20, 0x00, 0x83, 0x08}
	bad = append(bad, []byte("wrongpw!")...)
	for i := 0; i < acs.DefaultMaxAttempts; i++ {
		dispatch(t, s, bad)
	}
	if !s.ACS.IsLocked(acs.PW3) {
		t.Fatalf("PW3 should be locked after %d failed attempts", acs.DefaultMaxAttempts)
	}

	payload := append(append([]byte{}, []byte("12345678")...), []byte("newadmin")...)
	req := append([]byte{0x00, 0x24, 0x00, 0x83, byte(len(payload))}, payload...)
	resp := dispatch(t, s, req)
	if sw(resp) != apdu.AuthBlocked {
		t.Fatalf("CHANGE REFERENCE DATA PW3 while locked = %v, want AUTH_BLOCKED", sw(resp))
	}
	if s.ACS.ErrorCount(acs.PW3) != acs.DefaultMaxAttempts {
		t.Fatalf("PW_ERR_PW3 = %d after locked attempt, want unchanged at %d", s.ACS.ErrorCount(acs.PW3), acs.DefaultMaxAttempts)
	}

	verifyOld := append([]byte{0x00, 0x20, 0x00, 0x83, 0x08}, []byte("12345678")...)
	resp = dispatch(t, s, verifyOld)
	if sw(resp) != apdu.AuthBlocked {
		t.Fatalf("VERIFY PW3 with correct admin password while locked = %v, want AUTH_BLOCKED (admin password must still work nowhere until unblocked)", sw(resp))
	}
}

// Scenario 4: PSO-CDS single-shot.
func TestScenario_PSOCDSSingleShot(t *testing.T) {
	s := newTestSession(t)
	priv := testRSAKey(t)
	ks := s.Crypto.SHA1([]byte("123456"))
	if err := s.Store.SetPrivateKey(dostore.Signing, acs.PW1, ks, priv); err != nil {
		t.Fatalf("SetPrivateKey: %v", err)
	}

	verifyPW1 := append([]byte{0x00, 0x20, 0x00, 0x81, 0x06}, []byte("123456")...)
	dispatch(t, s, verifyPW1)

	digestInfo := bytes.Repeat([]byte{0xAB}, digestInfoLen)
	signReq := append([]byte{0x00, 0x2A, 0x9E, 0x9A, byte(digestInfoLen)}, digestInfo...)
	signReq = append(signReq, 0x00, 0x00, 0x00) // pad to the spec's 8+35 total-length check

	resp := dispatch(t, s, signReq)
	if sw(resp) != apdu.Success {
		t.Fatalf("first sign = %v, want SUCCESS", sw(resp))
	}

	resp = dispatch(t, s, signReq)
	if sw(resp) != apdu.SecurityFailure {
		t.Fatalf("second sign (single-shot) = %v, want SECURITY_FAILURE", sw(resp))
	}
}

// Scenario 5: select EF_SERIAL then READ BINARY.
func TestScenario_ReadBinarySerial(t *testing.T) {
	s := newTestSession(t)

	selectSerial := []byte{0x00, 0xA4, 0x02, 0x00, 0x02, 0x2F, 0x02}
	resp := dispatch(t, s, selectSerial)
	if sw(resp) != apdu.Success {
		t.Fatalf("SELECT EF_SERIAL = %v, want SUCCESS", sw(resp))
	}

	readBinary := []byte{0x00, 0xB0, 0x00, 0x00, 0x00}
	resp = dispatch(t, s, readBinary)
	if sw(resp) != apdu.Success {
		t.Fatalf("READ BINARY = %v, want SUCCESS", sw(resp))
	}
	want := append([]byte{0x5A}, AID...)
	if !bytes.Equal(resp[:len(want)], want) {
		t.Fatalf("READ BINARY payload = % X, want %X || AID", resp[:len(want)], 0x5A)
	}
}

// Scenario 6: RESET RETRY COUNTER by admin.
func TestScenario_ResetRetryCounterByAdmin(t *testing.T) {
	s := newTestSession(t)
	s.ACS.Grant(acs.FlagAdmin)

	resetReq := append([]byte{0x00, 0x2C, 0x02, 0x00, 0x08}, []byte("newpw123")...)
	resp := dispatch(t, s, resetReq)
	if sw(resp) != apdu.Success {
		t.Fatalf("RESET RETRY COUNTER = %v, want SUCCESS", sw(resp))
	}

	verifyNew := append([]byte{0x00, 0x20, 0x00, 0x81, 0x08}, []byte("newpw123")...)
	resp = dispatch(t, s, verifyNew)
	if sw(resp) != apdu.Success {
		t.Fatalf("VERIFY new PW1 = %v, want SUCCESS", sw(resp))
	}
}

func TestUnknownINS_ReturnsWrongIns(t *testing.T) {
	s := newTestSession(t)
	resp := dispatch(t, s, []byte{0x00, 0xFF, 0x00, 0x00, 0x00})
	if sw(resp) != apdu.WrongIns {
		t.Fatalf("unknown INS = %v, want WRONG_INS", sw(resp))
	}
}

func TestGetPutData_RequiresDFOpenPGP(t *testing.T) {
	s := newTestSession(t)
	putReq := []byte{0x00, 0xDA, 0x5E, 0x00, 0x03, 'a', 'b', 'c'}
	resp := dispatch(t, s, putReq)
	if sw(resp) != apdu.NoRecord {
		t.Fatalf("PUT DATA without DF selected = %v, want NO_RECORD", sw(resp))
	}

	s.FileSelection = FileDFOpenPGP
	resp = dispatch(t, s, putReq)
	if sw(resp) != apdu.Success {
		t.Fatalf("PUT DATA = %v, want SUCCESS", sw(resp))
	}

	getReq := []byte{0x00, 0xCA, 0x5E, 0x00, 0x00}
	resp = dispatch(t, s, getReq)
	if sw(resp) != apdu.Success {
		t.Fatalf("GET DATA = %v, want SUCCESS", sw(resp))
	}
	if string(resp[:3]) != "abc" {
		t.Fatalf("GET DATA payload = %q, want %q", resp[:3], "abc")
	}
}
