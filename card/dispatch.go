package card

import "github.com/libretoken/pgpcard/apdu"

// Instruction bytes recognized by the dispatcher (spec §4.1).
const (
	insVerify              = 0x20
	insChangeReferenceData = 0x24
	insPSO                 = 0x2A
	insResetRetryCounter   = 0x2C
	insGenerateKeyPair     = 0x47
	insInternalAuthenticate = 0x88
	insSelectFile          = 0xA4
	insReadBinary          = 0xB0
	insGetData             = 0xCA
	insPutData             = 0xDA
	insPutDataOdd          = 0xDB
)

// handler is the shape every INS handler implements: given a session and a
// parsed request, it writes exactly one response (spec §4.1: "Handlers are
// total: every path writes a response").
type handler func(s *Session, req *apdu.Request, resp *apdu.Response)

// dispatchTable maps INS to handler. A tagged lookup rather than C-style
// function-pointer array indexed by INS, with unknown INS handled as an
// ordinary map miss instead of an unreachable branch (spec §9).
var dispatchTable = map[byte]handler{
	insSelectFile:           handleSelectFile,
	insVerify:               handleVerify,
	insChangeReferenceData:  handleChangeReferenceData,
	insResetRetryCounter:    handleResetRetryCounter,
	insPSO:                  handlePSO,
	insInternalAuthenticate: handleInternalAuthenticate,
	insGenerateKeyPair:      handleGenerateKeyPair,
	insReadBinary:           handleReadBinary,
	insGetData:              handleGetPutData,
	insPutData:              handleGetPutData,
	insPutDataOdd:           handleGetPutData,
}

// Dispatch parses raw as a command APDU and runs the matching handler,
// returning the finalized response bytes (payload || SW1 || SW2). A
// malformed command (too short, too long) is reported as an error rather
// than a status word — the spec's offset-bounds-checking invariant governs
// handlers that see a validly-framed but semantically bad APDU, not
// transport-level framing errors.
func Dispatch(s *Session, raw []byte) ([]byte, error) {
	req, err := apdu.NewRequest(raw)
	if err != nil {
		return nil, err
	}

	resp := apdu.NewResponse()
	h, ok := dispatchTable[req.INS()]
	if !ok {
		resp.End(apdu.WrongIns)
		return resp.Bytes(), nil
	}
	h(s, req, resp)
	return resp.Bytes(), nil
}
