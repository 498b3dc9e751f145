package card

import "github.com/libretoken/pgpcard/apdu"

// handleReadBinary implements READ BINARY (INS 0xB0, spec §4.9).
func handleReadBinary(s *Session, req *apdu.Request, resp *apdu.Response) {
	if s.FileSelection != FileEFSerial {
		writeStatus(resp, apdu.NoRecord)
		return
	}
	if req.P2() >= 6 {
		writeStatus(resp, apdu.BadP1P2)
		return
	}
	resp.Write([]byte{0x5A})
	resp.Write(AID)
	writeSuccess(resp)
}
