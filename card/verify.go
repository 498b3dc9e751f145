package card

import (
	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/apdu"
	"github.com/libretoken/pgpcard/cryptoprim"
	"github.com/libretoken/pgpcard/dostore"
)

// FactoryPW3 is the admin password assumed when no PW3 keystring record has
// ever been written. The spec names only a factory PW1 explicitly (§6); a
// factory admin password matching what real OpenPGP Card v2 tokens ship
// with ("12345678") is carried so VERIFY/CHANGE REFERENCE DATA against PW3
// are reachable before the card has ever been personalized. See DESIGN.md.
var FactoryPW3 = []byte("12345678")

// handleVerify implements VERIFY (INS 0x20, spec §4.3).
func handleVerify(s *Session, req *apdu.Request, resp *apdu.Response) {
	var cred acs.Credential
	var flag acs.AuthFlag
	switch req.P2() {
	case 0x81:
		cred, flag = acs.PW1, acs.FlagPSOCDS
	case 0x82:
		cred, flag = acs.PW1, acs.FlagPSOOther
	case 0x83:
		cred, flag = acs.PW3, acs.FlagAdmin
	default:
		writeStatus(resp, apdu.GenericError)
		return
	}

	payload, ok := req.PayloadAll()
	if !ok {
		writeStatus(resp, apdu.GenericError)
		return
	}

	supplied := s.Crypto.SHA1(payload)
	expected := s.expectedKeystring(cred)

	switch s.ACS.Verify(cred, supplied == expected) {
	case acs.VerifyBlocked:
		writeStatus(resp, apdu.AuthBlocked)
	case acs.VerifyFailed:
		writeStatus(resp, apdu.SecurityFailure)
	case acs.VerifyOK:
		s.ACS.Grant(flag)
		writeSuccess(resp)
	}
}

// expectedKeystring returns the digest a VERIFY/CHANGE REFERENCE DATA
// attempt against cred must match: the stored record if one exists, else
// the credential's factory default.
func (s *Session) expectedKeystring(cred acs.Credential) cryptoprim.Keystring {
	switch cred {
	case acs.PW1:
		return s.pw1Keystring()
	case acs.PW3:
		if rec, ok := s.Store.GetSimple(dostore.TagPW3Keystring); ok && len(rec) >= 20 {
			var ks cryptoprim.Keystring
			copy(ks[:], rec[:20])
			return ks
		}
		return s.Crypto.SHA1(FactoryPW3)
	default: // acs.RC
		if rec, ok := s.Store.GetSimple(dostore.TagRCKeystring); ok && len(rec) >= 21 {
			var ks cryptoprim.Keystring
			copy(ks[:], rec[1:21])
			return ks
		}
		// No factory Reset Code exists; returning the zero keystring means
		// an all-zero password would spuriously match only in the
		// astronomically unlikely event its SHA-1 digest is all zero.
		return cryptoprim.Keystring{}
	}
}
