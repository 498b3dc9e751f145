package devicetest

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/card"
	"github.com/libretoken/pgpcard/dostore"
)

const digestInfoLen = 35

// AllScenarios returns the spec's six numbered scenarios (§8) plus the
// universal-invariant checks that apply to every reachable state.
func AllScenarios() []Scenario {
	return []Scenario{
		{Name: "factory-select-and-verify-pw1", Run: scenarioFactorySelectAndVerifyPW1},
		{Name: "pw1-wrong-then-blocked", Run: scenarioPW1WrongThenBlocked},
		{Name: "change-pw1-factory-default", Run: scenarioChangePW1FactoryDefault},
		{Name: "pso-cds-single-shot", Run: scenarioPSOCDSSingleShot},
		{Name: "select-ef-serial-read-binary", Run: scenarioReadBinarySerial},
		{Name: "reset-retry-counter-by-admin", Run: scenarioResetByAdmin},
		{Name: "invariant-every-handler-writes-one-sw", Run: scenarioEveryHandlerWritesSW},
		{Name: "invariant-get-put-data-roundtrip", Run: scenarioGetPutDataRoundTrip},
	}
}

func dispatch(s *card.Session, raw []byte) ([]byte, error) {
	return card.Dispatch(s, raw)
}

func scenarioFactorySelectAndVerifyPW1(s *card.Session) error {
	selectDF := append([]byte{0x00, 0xA4, 0x04, 0x00, 0x06}, card.AID[1:]...)
	resp, err := dispatch(s, selectDF)
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x9000, "SELECT DF"); err != nil {
		return err
	}

	verify := append([]byte{0x00, 0x20, 0x00, 0x81, 0x06}, []byte("123456")...)
	resp, err = dispatch(s, verify)
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x9000, "VERIFY PW1"); err != nil {
		return err
	}
	if !s.ACS.Authorized(acs.FlagPSOCDS) {
		return fmt.Errorf("FlagPSOCDS not authorized after successful VERIFY")
	}
	return nil
}

func scenarioPW1WrongThenBlocked(s *card.Session) error {
	bad := append([]byte{0x00, 0x20, 0x00, 0x81, 0x06}, []byte("bad000")...)
	resp, err := dispatch(s, bad)
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x6982, "first bad VERIFY"); err != nil {
		return err
	}
	for i := 1; i < acs.DefaultMaxAttempts; i++ {
		if _, err := dispatch(s, bad); err != nil {
			return err
		}
	}
	resp, err = dispatch(s, bad)
	if err != nil {
		return err
	}
	return requireSW(resp, 0x6983, "VERIFY after threshold")
}

func scenarioChangePW1FactoryDefault(s *card.Session) error {
	payload := append(append([]byte{}, []byte("123456")...), []byte("abcdefgh")...)
	req := append([]byte{0x00, 0x24, 0x00, 0x81, byte(len(payload))}, payload...)
	resp, err := dispatch(s, req)
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x9000, "CHANGE REFERENCE DATA PW1"); err != nil {
		return err
	}

	verifyNew := append([]byte{0x00, 0x20, 0x00, 0x81, 0x08}, []byte("abcdefgh")...)
	resp, err = dispatch(s, verifyNew)
	if err != nil {
		return err
	}
	return requireSW(resp, 0x9000, "VERIFY with new PW1")
}

func scenarioPSOCDSSingleShot(s *card.Session) error {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return err
	}
	ks := s.Crypto.SHA1([]byte("123456"))
	if err := s.Store.SetPrivateKey(dostore.Signing, acs.PW1, ks, priv); err != nil {
		return err
	}

	verify := append([]byte{0x00, 0x20, 0x00, 0x81, 0x06}, []byte("123456")...)
	if _, err := dispatch(s, verify); err != nil {
		return err
	}

	digestInfo := bytes.Repeat([]byte{0xAB}, digestInfoLen)
	signReq := append([]byte{0x00, 0x2A, 0x9E, 0x9A, byte(digestInfoLen)}, digestInfo...)
	signReq = append(signReq, 0x00, 0x00, 0x00)

	resp, err := dispatch(s, signReq)
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x9000, "first sign"); err != nil {
		return err
	}

	resp, err = dispatch(s, signReq)
	if err != nil {
		return err
	}
	return requireSW(resp, 0x6982, "second sign (single-shot)")
}

func scenarioReadBinarySerial(s *card.Session) error {
	selectSerial := []byte{0x00, 0xA4, 0x02, 0x00, 0x02, 0x2F, 0x02}
	resp, err := dispatch(s, selectSerial)
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x9000, "SELECT EF_SERIAL"); err != nil {
		return err
	}

	resp, err = dispatch(s, []byte{0x00, 0xB0, 0x00, 0x00, 0x00})
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x9000, "READ BINARY"); err != nil {
		return err
	}
	want := append([]byte{0x5A}, card.AID...)
	if !bytes.Equal(resp[:len(want)], want) {
		return fmt.Errorf("READ BINARY payload mismatch")
	}
	return nil
}

func scenarioResetByAdmin(s *card.Session) error {
	s.ACS.Grant(acs.FlagAdmin)
	req := append([]byte{0x00, 0x2C, 0x02, 0x00, 0x08}, []byte("newpw123")...)
	resp, err := dispatch(s, req)
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x9000, "RESET RETRY COUNTER"); err != nil {
		return err
	}

	verify := append([]byte{0x00, 0x20, 0x00, 0x81, 0x08}, []byte("newpw123")...)
	resp, err = dispatch(s, verify)
	if err != nil {
		return err
	}
	return requireSW(resp, 0x9000, "VERIFY new PW1")
}

func scenarioEveryHandlerWritesSW(s *card.Session) error {
	for _, ins := range []byte{0x20, 0x24, 0x2A, 0x2C, 0x47, 0x88, 0xA4, 0xB0, 0xCA, 0xDA, 0xFF} {
		resp, err := dispatch(s, []byte{0x00, ins, 0x00, 0x00, 0x00})
		if err != nil {
			return fmt.Errorf("INS %02X: dispatch error: %w", ins, err)
		}
		if len(resp) < 2 {
			return fmt.Errorf("INS %02X: response shorter than a status word", ins)
		}
	}
	return nil
}

func scenarioGetPutDataRoundTrip(s *card.Session) error {
	s.FileSelection = card.FileDFOpenPGP
	put := []byte{0x00, 0xDA, 0x5E, 0x00, 0x03, 'a', 'b', 'c'}
	resp, err := dispatch(s, put)
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x9000, "PUT DATA"); err != nil {
		return err
	}
	get := []byte{0x00, 0xCA, 0x5E, 0x00, 0x00}
	resp, err = dispatch(s, get)
	if err != nil {
		return err
	}
	if err := requireSW(resp, 0x9000, "GET DATA"); err != nil {
		return err
	}
	if string(resp[:3]) != "abc" {
		return fmt.Errorf("GET DATA payload = %q, want %q", resp[:3], "abc")
	}
	return nil
}
