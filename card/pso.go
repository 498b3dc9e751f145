package card

import (
	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/apdu"
	"github.com/libretoken/pgpcard/dostore"
)

// digestInfoLen is the DigestInfo length PSO-CDS signs over (spec §4.6).
const digestInfoLen = 35

// handlePSO implements PERFORM SECURITY OPERATION (INS 0x2A, spec §4.6).
func handlePSO(s *Session, req *apdu.Request, resp *apdu.Response) {
	switch {
	case req.P1() == 0x9E && req.P2() == 0x9A:
		handlePSOSign(s, req, resp)
	case req.P1() == 0x80 && req.P2() == 0x86:
		handlePSODecrypt(s, req, resp)
	default:
		writeStatus(resp, apdu.GenericError)
	}
}

func handlePSOSign(s *Session, req *apdu.Request, resp *apdu.Response) {
	if !s.ACS.Authorized(acs.FlagPSOCDS) {
		writeStatus(resp, apdu.SecurityFailure)
		return
	}
	if req.Size() != 8+digestInfoLen && req.Size() != 8+digestInfoLen+1 {
		writeStatus(resp, apdu.GenericError)
		return
	}
	digestInfo, ok := req.Payload(digestInfoLen)
	if !ok {
		writeStatus(resp, apdu.GenericError)
		return
	}

	result := s.Store.LoadPrivateKey(dostore.Signing, s.pw1Keystring())
	if result.Status != dostore.LoadPresent {
		s.ACS.Clear(acs.FlagPSOCDS)
		writeStatus(resp, apdu.GenericError)
		return
	}

	sig, err := s.Crypto.RSASign(result.Key, digestInfo)
	if err != nil {
		s.ACS.Clear(acs.FlagPSOCDS)
		writeStatus(resp, apdu.GenericError)
		return
	}

	if !s.ACS.PW1Lifetime {
		s.ACS.Clear(acs.FlagPSOCDS)
	}
	s.SigCounter++
	resp.Write(sig)
	writeSuccess(resp)
}

func handlePSODecrypt(s *Session, req *apdu.Request, resp *apdu.Response) {
	if s.ACS.IsLocked(acs.PW1) || !s.ACS.Authorized(acs.FlagPSOOther) {
		writeStatus(resp, apdu.SecurityFailure)
		return
	}

	payload, ok := req.PayloadAll()
	if !ok || len(payload) < 1 {
		writeStatus(resp, apdu.GenericError)
		return
	}
	ciphertext := payload[1:] // skip leading padding-indicator byte

	result := s.Store.LoadPrivateKey(dostore.Decryption, s.pw1Keystring())
	s.ACS.Clear(acs.FlagPSOOther)
	if result.Status == dostore.LoadCryptoFail {
		s.ACS.Verify(acs.PW1, false)
		writeStatus(resp, apdu.SecurityFailure)
		return
	}
	if result.Status != dostore.LoadPresent {
		writeStatus(resp, apdu.GenericError)
		return
	}
	s.ACS.ResetCounter(acs.PW1)

	plaintext, err := s.Crypto.RSADecrypt(result.Key, ciphertext)
	if err != nil {
		writeStatus(resp, apdu.GenericError)
		return
	}
	resp.Write(plaintext)
	writeSuccess(resp)
}
