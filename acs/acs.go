// Package acs implements the Access-Control State: the three independent
// authorization flags, the per-credential error counters and lockout, and
// the tri-state VERIFY result. The re-wrap results of a keystring change
// are dostore.ChksStatus values.
//
// Modeled after the teacher's card/auth.go (per-PIN verify/retry-counter
// helpers, ADMInfo{Exists,Blocked,Attempts}) with the magic-number tri-state
// convention abolished per the spec's own redesign note: verify and
// change-keystring outcomes are proper variants, not signed integers.
package acs

import "fmt"

// Credential identifies one of the three passwords tracked by the ACS.
type Credential int

const (
	PW1 Credential = iota // BY_USER: signing/decrypt/auth password
	RC                    // BY_RESETCODE: reset code
	PW3                   // BY_ADMIN: admin password
)

func (c Credential) String() string {
	switch c {
	case PW1:
		return "PW1"
	case RC:
		return "RC"
	case PW3:
		return "PW3"
	default:
		return fmt.Sprintf("Credential(%d)", int(c))
	}
}

// AuthFlag identifies one of the three independent authorization flags.
type AuthFlag int

const (
	FlagPSOCDS AuthFlag = iota
	FlagPSOOther
	FlagAdmin
)

// DefaultMaxAttempts is the per-credential retry ceiling before a credential
// is locked. The spec leaves the exact threshold to the implementation; this
// matches the value real OpenPGP Card v2 tokens ship with.
const DefaultMaxAttempts = 3

// State holds every piece of RAM-resident access-control state: the three
// authorization flags and the three error counters. It has no internal
// locking — per spec §5 the worker owns it exclusively and runs
// single-threaded, so none is needed.
type State struct {
	flags       [3]bool
	counters    [3]int
	maxAttempts [3]int

	// PW1Lifetime controls whether a successful PSO-CDS authorization
	// survives more than one signing operation ("multi-shot" mode). The
	// spec's default is single-shot (false): PSO-CDS auth is cleared
	// immediately after use.
	PW1Lifetime bool
}

// New returns a State with all flags clear and all counters zeroed, the
// state of a freshly reset device.
func New() *State {
	return &State{
		maxAttempts: [3]int{DefaultMaxAttempts, DefaultMaxAttempts, DefaultMaxAttempts},
	}
}

// Reset clears every authorization flag. Called at power-on / card reset;
// counters and lockout are NOT touched by reset — only by a successful
// verify or an explicit administrative reset of the counter.
func (s *State) Reset() {
	s.flags = [3]bool{}
}

// Authorized reports whether the given flag is currently set.
func (s *State) Authorized(f AuthFlag) bool { return s.flags[f] }

// Grant sets an authorization flag, e.g. after a successful VERIFY.
func (s *State) Grant(f AuthFlag) { s.flags[f] = true }

// Clear unsets an authorization flag.
func (s *State) Clear(f AuthFlag) { s.flags[f] = false }

// ErrorCount returns the current error counter for a credential.
func (s *State) ErrorCount(c Credential) int { return s.counters[c] }

// IsLocked reports whether a credential's error counter has reached its
// maximum. A locked credential's verify must fail without consulting the
// secret (spec §3 invariant).
func (s *State) IsLocked(c Credential) bool {
	return s.counters[c] >= s.maxAttempts[c]
}

// ResetCounter zeroes a credential's error counter, e.g. after a successful
// verify or a persisted keystring-record write (spec §3: "reset to zero in
// the same logical transaction").
func (s *State) ResetCounter(c Credential) { s.counters[c] = 0 }

// incrementCounter advances a credential's error counter, saturating at
// maxAttempts so repeated failed attempts never wrap or overflow.
func (s *State) incrementCounter(c Credential) {
	if s.counters[c] < s.maxAttempts[c] {
		s.counters[c]++
	}
}

// VerifyOutcome is the tri-state result of a VERIFY attempt: Blocked (the
// credential is locked and the secret was never consulted), Failed (wrong
// secret), or OK (authorized).
type VerifyOutcome int

const (
	VerifyFailed VerifyOutcome = iota
	VerifyBlocked
	VerifyOK
)

// Verify checks a credential against secretMatches (the caller has already
// computed whether the supplied keystring matches the stored one) and
// updates the counter and, on success, does NOT itself grant an
// authorization flag — callers map the credential to the right AuthFlag(s)
// and call Grant themselves, since VERIFY P2 values can authorize more than
// one flag semantics-wise depending on context.
func (s *State) Verify(c Credential, secretMatches bool) VerifyOutcome {
	if s.IsLocked(c) {
		return VerifyBlocked
	}
	if !secretMatches {
		s.incrementCounter(c)
		return VerifyFailed
	}
	s.ResetCounter(c)
	return VerifyOK
}
