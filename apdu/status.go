package apdu

import "fmt"

// StatusWord is the two-byte SW1/SW2 pair terminating every response. This
// is the complete set the core ever writes — see spec §3.
type StatusWord uint16

const (
	Success          StatusWord = 0x9000 // ok
	SecurityFailure  StatusWord = 0x6982 // auth missing or wrong
	AuthBlocked      StatusWord = 0x6983 // retry counter exhausted
	MemoryFailure    StatusWord = 0x6581 // persistent write failed
	NoRecord         StatusWord = 0x6A83 // wrong selected file for command
	NoFile           StatusWord = 0x6A82 // selection target not found
	BadP1P2          StatusWord = 0x6B00 // parameter out of range
	WrongIns         StatusWord = 0x6D00 // unknown instruction
	GenericError     StatusWord = 0x6F00 // catch-all
)

// String renders the status word the way the teacher's SWToString does, for
// logs and CLI output.
func (sw StatusWord) String() string {
	switch sw {
	case Success:
		return "SUCCESS"
	case SecurityFailure:
		return "SECURITY_FAILURE"
	case AuthBlocked:
		return "AUTH_BLOCKED"
	case MemoryFailure:
		return "MEMORY_FAILURE"
	case NoRecord:
		return "NO_RECORD"
	case NoFile:
		return "NO_FILE"
	case BadP1P2:
		return "BAD_P0_P1"
	case WrongIns:
		return "WRONG_INS"
	case GenericError:
		return "GENERIC_ERROR"
	default:
		return fmt.Sprintf("SW_%04X", uint16(sw))
	}
}

// IsSuccess reports whether sw is the SUCCESS status word.
func (sw StatusWord) IsSuccess() bool { return sw == Success }
