package card

import (
	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/apdu"
	"github.com/libretoken/pgpcard/dostore"
)

// purposeByteOffset is the APDU offset of the key-purpose byte read-public-key
// requests carry (spec §4.8).
const purposeByteOffset = 7

// handleGenerateKeyPair implements GENERATE ASYMMETRIC KEY PAIR (INS 0x47,
// spec §4.8). Key generation itself is a declared non-goal (spec §1); the
// read-public-key path (P1 0x81) is implemented since it requires no
// on-device key generation.
func handleGenerateKeyPair(s *Session, req *apdu.Request, resp *apdu.Response) {
	if req.P1() == 0x81 {
		purposeByte, ok := req.ByteAt(purposeByteOffset)
		if !ok {
			writeStatus(resp, apdu.GenericError)
			return
		}
		purpose, ok := keyPurposeFromByte(purposeByte)
		if !ok {
			writeStatus(resp, apdu.GenericError)
			return
		}

		result := s.Store.LoadPrivateKey(purpose, s.pw1Keystring())
		if result.Status != dostore.LoadPresent {
			writeStatus(resp, apdu.GenericError)
			return
		}
		resp.Write(result.Key.PublicKey.N.Bytes())
		writeSuccess(resp)
		return
	}

	// The spec's §9 open question: a reimplementation must return after the
	// first status write rather than falling through to a second one, per
	// the redesign note resolving the original admin-unauthorized bug.
	if !s.ACS.Authorized(acs.FlagAdmin) {
		writeStatus(resp, apdu.SecurityFailure)
		return
	}
	writeStatus(resp, apdu.GenericError)
}

func keyPurposeFromByte(b byte) (dostore.KeyPurpose, bool) {
	switch b {
	case 0xB6:
		return dostore.Signing, true
	case 0xB8:
		return dostore.Decryption, true
	case 0xA4:
		return dostore.Authentication, true
	default:
		return 0, false
	}
}
