package card

import (
	"github.com/libretoken/pgpcard/apdu"
	"github.com/libretoken/pgpcard/dostore"
)

// handleGetPutData implements GET DATA and both PUT DATA instruction
// variants (INS 0xCA/0xDA/0xDB, spec §4.10). All tag-specific semantics —
// access restrictions, fixed/variable length, cross-tag consistency — are
// the DO store's responsibility; this handler only frames the tag and
// payload and hands off.
func handleGetPutData(s *Session, req *apdu.Request, resp *apdu.Response) {
	if s.FileSelection != FileDFOpenPGP {
		writeStatus(resp, apdu.NoRecord)
		return
	}
	tag := dostore.Tag(uint16(req.P1())<<8 | uint16(req.P2()))

	switch req.INS() {
	case insGetData:
		value, ok := s.Store.GetData(tag)
		if !ok {
			writeStatus(resp, apdu.NoRecord)
			return
		}
		resp.Write(value)
		writeSuccess(resp)
	default: // PUT DATA / PUT DATA ODD
		payload, ok := req.PayloadAll()
		if !ok {
			writeStatus(resp, apdu.GenericError)
			return
		}
		if err := s.Store.PutData(tag, payload); err != nil {
			writeStatus(resp, apdu.MemoryFailure)
			return
		}
		writeSuccess(resp)
	}
}
