package card

import (
	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/apdu"
	"github.com/libretoken/pgpcard/dostore"
)

// handleResetRetryCounter implements RESET RETRY COUNTER (INS 0x2C,
// spec §4.5).
func handleResetRetryCounter(s *Session, req *apdu.Request, resp *apdu.Response) {
	switch req.P1() {
	case 0x00:
		resetByResetCode(s, req, resp)
	case 0x02:
		resetByAdmin(s, req, resp)
	default:
		writeStatus(resp, apdu.GenericError)
	}
}

func resetByResetCode(s *Session, req *apdu.Request, resp *apdu.Response) {
	if s.ACS.IsLocked(acs.RC) {
		writeStatus(resp, apdu.AuthBlocked)
		return
	}
	rcRecord, hasRC := s.Store.GetSimple(dostore.TagRCKeystring)
	if !hasRC || len(rcRecord) < 21 {
		writeStatus(resp, apdu.SecurityFailure)
		return
	}

	payload, ok := req.PayloadAll()
	if !ok {
		writeStatus(resp, apdu.GenericError)
		return
	}
	rcLen := int(rcRecord[0])
	if rcLen < 0 || rcLen > len(payload) {
		writeStatus(resp, apdu.GenericError)
		return
	}
	oldRC, newPW1 := payload[:rcLen], payload[rcLen:]
	oldKs := s.Crypto.SHA1(oldRC)
	newKs := s.Crypto.SHA1(newPW1)

	results := s.Store.RewrapKeys(acs.RC, oldKs, acs.PW1, newKs)
	migrated, failSW, ok := summarizeRewrap(results)
	if !ok {
		s.ACS.Verify(acs.RC, false)
		writeStatus(resp, failSW)
		return
	}
	if migrated == 0 {
		var storedRC [20]byte
		copy(storedRC[:], rcRecord[1:21])
		if storedRC != oldKs {
			s.ACS.Verify(acs.RC, false)
			writeStatus(resp, apdu.SecurityFailure)
			return
		}
	}

	record := append([]byte{byte(len(newPW1))}, newKs[:]...)
	if err := s.Store.PutSimple(dostore.TagPW1Keystring, record); err != nil {
		writeStatus(resp, apdu.MemoryFailure)
		return
	}

	s.ACS.Verify(acs.RC, true)
	s.ACS.ResetCounter(acs.PW1)
	s.ACS.Clear(acs.FlagPSOCDS)
	writeSuccess(resp)
}

func resetByAdmin(s *Session, req *apdu.Request, resp *apdu.Response) {
	if !s.ACS.Authorized(acs.FlagAdmin) {
		writeStatus(resp, apdu.SecurityFailure)
		return
	}

	newPW1, ok := req.PayloadAll()
	if !ok {
		writeStatus(resp, apdu.GenericError)
		return
	}
	newKs := s.Crypto.SHA1(newPW1)
	adminKs := s.expectedKeystring(acs.PW3)

	results := s.Store.RewrapKeys(acs.PW3, adminKs, acs.PW1, newKs)
	_, failSW, ok := summarizeRewrap(results)
	if !ok {
		writeStatus(resp, failSW)
		return
	}

	record := append([]byte{byte(len(newPW1))}, newKs[:]...)
	if err := s.Store.PutSimple(dostore.TagPW1Keystring, record); err != nil {
		writeStatus(resp, apdu.MemoryFailure)
		return
	}

	s.ACS.Clear(acs.FlagPSOCDS)
	s.ACS.ResetCounter(acs.PW1)
	writeSuccess(resp)
}
