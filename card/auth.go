package card

import (
	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/apdu"
	"github.com/libretoken/pgpcard/dostore"
)

// handleInternalAuthenticate implements INTERNAL AUTHENTICATE (INS 0x88,
// spec §4.7): the same PW1-unwrap and counter semantics as PSO-decrypt, but
// against the AUTHENTICATION key and signing rather than decrypting.
func handleInternalAuthenticate(s *Session, req *apdu.Request, resp *apdu.Response) {
	if req.P1() != 0x00 || req.P2() != 0x00 {
		writeStatus(resp, apdu.GenericError)
		return
	}
	if s.ACS.IsLocked(acs.PW1) || !s.ACS.Authorized(acs.FlagPSOOther) {
		writeStatus(resp, apdu.SecurityFailure)
		return
	}

	challenge, ok := req.PayloadAll()
	if !ok {
		writeStatus(resp, apdu.GenericError)
		return
	}

	result := s.Store.LoadPrivateKey(dostore.Authentication, s.pw1Keystring())
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

	sig, err := s.Crypto.RSASign(result.Key, challenge)
	if err != nil {
		writeStatus(resp, apdu.GenericError)
		return
	}
	resp.Write(sig)
	writeSuccess(resp)
}
