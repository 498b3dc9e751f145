package card

import "github.com/libretoken/pgpcard/apdu"

// handleSelectFile implements SELECT FILE (INS 0xA4, spec §4.2).
func handleSelectFile(s *Session, req *apdu.Request, resp *apdu.Response) {
	if req.P1() == 0x04 {
		s.FileSelection = FileDFOpenPGP
		writeSuccess(resp)
		return
	}

	payload, ok := req.Payload(2)
	if ok && req.Lc() == 2 && payload[0] == 0x2F && payload[1] == 0x02 {
		s.FileSelection = FileEFSerial
		writeSuccess(resp)
		return
	}
	if ok && req.Lc() == 2 && payload[0] == 0x3F && payload[1] == 0x00 {
		s.FileSelection = FileMF
		if req.P2() == 0x0C {
			writeSuccess(resp)
			return
		}
		resp.Write(patchedMFTemplate(s.Store.TotalSize()))
		writeSuccess(resp)
		return
	}

	s.FileSelection = FileNone
	writeStatus(resp, apdu.NoFile)
}

// patchedMFTemplate returns the SELECT-MF FCI template with bytes 2-3
// rewritten to the current DO store total size, little-endian (spec §6).
// The template constant itself is never mutated.
func patchedMFTemplate(totalSize int) []byte {
	out := selectMFTemplate
	out[2] = byte(totalSize)
	out[3] = byte(totalSize >> 8)
	return out[:]
}
