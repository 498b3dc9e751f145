// Package card implements the APDU command dispatcher and the handlers for
// the OpenPGP Card v2 command subset: the worker-owned Session that holds
// every piece of RAM-resident state (selected file, ACS) and dispatches a
// received command APDU to the right handler. The request and response
// buffers are created per command by Dispatch.
//
// Modeled after the teacher's card/reader.go (a Reader struct bundling
// everything one card session needs — here a Session plays the equivalent
// role, but on the card side of the wire instead of the host side) and
// card/auth.go (VERIFY/CHANGE REFERENCE DATA-shaped PIN operations, adapted
// from "PC/SC client verifying against a card" to "card verifying a
// received secret").
package card

import (
	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/apdu"
	"github.com/libretoken/pgpcard/cryptoprim"
	"github.com/libretoken/pgpcard/dostore"
)

// FileSelection is the currently selected ISO-7816 file, which gates which
// commands are accepted (spec §3, §4.2).
type FileSelection int

const (
	FileNone FileSelection = iota
	FileMF
	FileDFOpenPGP
	FileEFDir
	FileEFSerial
)

func (f FileSelection) String() string {
	switch f {
	case FileNone:
		return "NONE"
	case FileMF:
		return "MF"
	case FileDFOpenPGP:
		return "DF_OPENPGP"
	case FileEFDir:
		return "EF_DIR"
	case FileEFSerial:
		return "EF_SERIAL"
	default:
		return "FileSelection(?)"
	}
}

// FactoryPW1 is the password assumed for PW1 when no PW1 keystring record
// has ever been written (spec §6).
var FactoryPW1 = []byte("123456")

// AID is the RID prefix for OpenPGP, with its own length as the leading
// byte (spec §6).
var AID = []byte{0x06, 0xD2, 0x76, 0x00, 0x01, 0x24, 0x01}

// selectMFTemplate is the literal 16-byte FCI template for SELECT MF (spec
// §6); bytes 2-3 are patched with the current DO store total size,
// little-endian, before each transmission. Kept as an immutable constant
// plus a patch step rather than mutated in place (spec §9).
var selectMFTemplate = [16]byte{
	0x00, 0x00, 0x00, 0x00, 0x3F, 0x00, 0x38, 0xFF,
	0xFF, 0x44, 0x44, 0x01, 0x05, 0x03, 0x01, 0x01,
}

// Session holds every piece of RAM-resident state the worker owns
// exclusively during a command's execution: the selected file, the
// access-control state, and the collaborators consumed by handlers. There
// is no global singleton; every handler takes a *Session explicitly (spec
// §9).
type Session struct {
	FileSelection FileSelection

	ACS    *acs.State
	Store  *dostore.Store
	Crypto cryptoprim.Provider

	// SigCounter is the digital-signature counter incremented on every
	// successful PSO-CDS (spec §4.6). It is held in this Session only: it
	// starts at zero in every new Session and is not written to the DO store.
	SigCounter uint32
}

// NewSession returns a fresh Session in the power-on state: no file
// selected, a clean ACS, bound to the given store and crypto provider.
func NewSession(store *dostore.Store, crypto cryptoprim.Provider) *Session {
	return &Session{
		FileSelection: FileNone,
		ACS:           acs.New(),
		Store:         store,
		Crypto:        crypto,
	}
}

// Reset restores power-on state: clears ACS authorization flags and
// deselects any file. Per spec §5, counters and lockout survive a reset —
// only VERIFY success or an explicit reset of a counter clears those.
func (s *Session) Reset() {
	s.ACS.Reset()
	s.FileSelection = FileNone
}

// pw1Keystring returns the keystring currently governing PW1: the stored
// record's digest if one exists, otherwise the factory default's digest
// (spec §3, §6).
func (s *Session) pw1Keystring() cryptoprim.Keystring {
	if rec, ok := s.Store.GetSimple(dostore.TagPW1Keystring); ok && len(rec) >= 21 {
		var ks cryptoprim.Keystring
		copy(ks[:], rec[1:21])
		return ks
	}
	return s.Crypto.SHA1(FactoryPW1)
}

// writeSuccess writes an empty SUCCESS response — the common case for
// handlers with no payload to return.
func writeSuccess(resp *apdu.Response) {
	resp.End(apdu.Success)
}

// writeStatus writes an empty response with the given status word.
func writeStatus(resp *apdu.Response, sw apdu.StatusWord) {
	resp.End(sw)
}
