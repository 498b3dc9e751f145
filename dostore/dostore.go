// Package dostore implements the tag-indexed Data Object store the spec
// names as an external collaborator (§6 "DO store interface (consumed)"):
// get/put of generic tagged byte strings, get/put of the simple internal
// records (PW1/RC/PW3 keystring records), and load/re-wrap of the three
// wrapped RSA private keys.
//
// Modeled after the teacher's sim/decoder.go + sim/encoder.go (tag/EF codec
// for persistent card data) for the tag-keyed shape, and sim/config.go
// (LoadConfig/SaveConfig JSON persistence) for the snapshot file that stands
// in for "the backing flash driver" named as an external collaborator.
package dostore

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/cryptoprim"
)

// Tag is a 16-bit Data Object tag, built from P1<<8|P2 on GET/PUT DATA.
type Tag uint16

// KeyPurpose identifies which of the three RSA private keys a wrapped-key
// record holds.
type KeyPurpose int

const (
	Signing KeyPurpose = iota
	Decryption
	Authentication
)

func (p KeyPurpose) String() string {
	switch p {
	case Signing:
		return "SIGNING"
	case Decryption:
		return "DECRYPTION"
	case Authentication:
		return "AUTHENTICATION"
	default:
		return fmt.Sprintf("KeyPurpose(%d)", int(p))
	}
}

// allPurposes lists the three private-key purposes in the order RewrapKeys
// visits them. Each stored key records the credential it is wrapped under;
// RewrapKeys (and so ChangeKeystring) only re-wraps keys currently wrapped
// under the credential passed as whoOld.
var allPurposes = [3]KeyPurpose{Signing, Decryption, Authentication}

// Internal tags for the "simple" records the core manages directly, as
// opposed to the generic GET/PUT DATA tag space exposed to the host.
const (
	TagPW1Keystring Tag = 0xFF01 // 21-byte record: length-prefix || 20-byte digest
	TagRCKeystring  Tag = 0xFF02 // 21-byte record: length-prefix || 20-byte digest
	TagPW3Keystring Tag = 0xFF03 // 20-byte digest, no length prefix
	TagSigCounter   Tag = 0xFF04 // digital-signature counter; not written by the card package
)

// LoadStatus is the result of loading a wrapped private key (spec §6:
// "{absent, present, crypto_fail, io_fail}").
type LoadStatus int

const (
	LoadAbsent LoadStatus = iota
	LoadPresent
	LoadCryptoFail
	LoadIOFail
)

// LoadResult is the outcome of LoadPrivateKey.
type LoadResult struct {
	Status LoadStatus
	Key    *rsa.PrivateKey
}

// ChksStatus is the per-key result of re-wrapping a single private key under
// a new keystring (spec §6: "{ok, crypto_fail, io_fail}"), plus Absent for
// "there was nothing to migrate" which the spec's gpg_change_keystring loop
// (§4.11) treats as skip-not-error.
type ChksStatus int

const (
	ChksAbsent ChksStatus = iota
	ChksOK
	ChksCryptoFail
	ChksIOFail
)

// keyRecord is the wrapped-key bookkeeping kept alongside the ciphertext:
// which credential's keystring it is currently wrapped under.
type keyRecord struct {
	Wrapped   []byte         `json:"wrapped"`
	WrappedBy acs.Credential `json:"wrapped_by"`
}

// snapshot is the JSON-serializable form of a Store, modeled on the
// teacher's sim/config.go Config struct.
type snapshot struct {
	Simple map[Tag][]byte           `json:"simple"`
	Data   map[Tag][]byte           `json:"data"`
	Keys   map[KeyPurpose]keyRecord `json:"keys"`
}

// Store is an in-memory Data Object store with an optional JSON snapshot
// file standing in for flash persistence. It implements every primitive the
// spec's §6 DO store interface names. The dispatcher leaves tag handling to
// the Store (spec §4.10); GetData/PutData store and return the bytes of any
// tag as given, with no per-tag length or access checks.
type Store struct {
	path string

	simple map[Tag][]byte
	data   map[Tag][]byte
	keys   map[KeyPurpose]keyRecord

	crypto cryptoprim.Provider

	// FailWrites, when set, makes every persisting operation report an
	// I/O failure — a fault-injection hook exercising the spec's
	// MEMORY_FAILURE paths without a real flash driver.
	FailWrites bool
}

// New returns an empty, unpersisted store backed by the given crypto
// provider (used to unwrap/re-wrap private keys).
func New(crypto cryptoprim.Provider) *Store {
	return &Store{
		simple: make(map[Tag][]byte),
		data:   make(map[Tag][]byte),
		keys:   make(map[KeyPurpose]keyRecord),
		crypto: crypto,
	}
}

// Open loads a snapshot from path if it exists, or returns a fresh empty
// store bound to path for future Save calls. Mirrors the teacher's
// sim/config.go LoadConfig: a missing file is not an error, a malformed one
// is.
func Open(path string, crypto cryptoprim.Provider) (*Store, error) {
	s := New(crypto)
	s.path = path

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dostore: open %s: %w", path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("dostore: parse %s: %w", path, err)
	}
	if snap.Simple != nil {
		s.simple = snap.Simple
	}
	if snap.Data != nil {
		s.data = snap.Data
	}
	if snap.Keys != nil {
		s.keys = snap.Keys
	}
	return s, nil
}

// Save writes the current store contents to the configured snapshot path.
// A no-op if the store was constructed with New rather than Open.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	snap := snapshot{Simple: s.simple, Data: s.data, Keys: s.keys}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("dostore: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("dostore: write %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) persist() error {
	if s.FailWrites {
		return fmt.Errorf("dostore: simulated write failure")
	}
	return s.Save()
}

// GetSimple returns an internal fixed-purpose record (PW1/RC/PW3 keystring
// records, signature counter). ok is false if the tag has never been
// written.
func (s *Store) GetSimple(tag Tag) (value []byte, ok bool) {
	v, ok := s.simple[tag]
	return v, ok
}

// PutSimple writes an internal fixed-purpose record, persisting the
// snapshot if a path was configured. Returns an error only on simulated or
// real I/O failure (spec: MEMORY_FAILURE).
func (s *Store) PutSimple(tag Tag, value []byte) error {
	if s.FailWrites {
		return fmt.Errorf("dostore: simulated write failure")
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.simple[tag] = cp
	return s.persist()
}

// DumpData returns a copy of every generic GET/PUT DATA tag currently
// stored, for diagnostic dumping (`dump` CLI subcommand).
func (s *Store) DumpData() map[Tag][]byte {
	out := make(map[Tag][]byte, len(s.data))
	for tag, v := range s.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[tag] = cp
	}
	return out
}

// GetData implements the generic GET DATA primitive (spec §4.10).
func (s *Store) GetData(tag Tag) (value []byte, ok bool) {
	v, ok := s.data[tag]
	return v, ok
}

// PutData implements the generic PUT DATA primitive (spec §4.10).
func (s *Store) PutData(tag Tag, value []byte) error {
	if s.FailWrites {
		return fmt.Errorf("dostore: simulated write failure")
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[tag] = cp
	return s.persist()
}

// TotalSize returns the total number of DO bytes currently present in the
// generic GET/PUT DATA tag space, used to patch the SELECT-MF FCI template
// (spec §4.2, §6). Internal "simple" records and wrapped keys are not part
// of this count — they are not OpenPGP-card Data Objects visible to GET
// DATA, only the host-visible tagged DOs are.
func (s *Store) TotalSize() int {
	total := 0
	for _, v := range s.data {
		total += len(v)
	}
	return total
}

// SetPrivateKey provisions purpose's private key wrapped under cred's
// keystring. Test/bring-up helper standing in for card personalization,
// which the spec names as out of scope (§1 "Out of scope").
func (s *Store) SetPrivateKey(purpose KeyPurpose, cred acs.Credential, ks cryptoprim.Keystring, priv *rsa.PrivateKey) error {
	wrapped, err := s.crypto.WrapKey(ks, priv)
	if err != nil {
		return fmt.Errorf("dostore: wrap key for %s: %w", purpose, err)
	}
	s.keys[purpose] = keyRecord{Wrapped: wrapped, WrappedBy: cred}
	return s.persist()
}

// LoadPrivateKey loads and unwraps purpose's private key under ks (spec
// §4.6, §4.7, §4.9: every private-key operation begins with a load).
func (s *Store) LoadPrivateKey(purpose KeyPurpose, ks cryptoprim.Keystring) LoadResult {
	rec, ok := s.keys[purpose]
	if !ok {
		return LoadResult{Status: LoadAbsent}
	}
	priv, err := s.crypto.UnwrapKey(ks, rec.Wrapped)
	if err != nil {
		if err == cryptoprim.ErrUnwrapFailed {
			return LoadResult{Status: LoadCryptoFail}
		}
		return LoadResult{Status: LoadIOFail}
	}
	return LoadResult{Status: LoadPresent, Key: priv}
}

// ChangeKeystring re-wraps every private key currently wrapped under cred
// from oldKs to newKs, keeping the same credential identity (spec §4.4's
// PW1 and PW3 change-password paths). It is RewrapKeys with whoOld==whoNew.
func (s *Store) ChangeKeystring(cred acs.Credential, oldKs, newKs cryptoprim.Keystring) map[KeyPurpose]ChksStatus {
	return s.RewrapKeys(cred, oldKs, cred, newKs)
}

// RewrapKeys is gpg_change_keystring (spec §4.11): for every key currently
// wrapped under whoOld, unwrap with oldKs and re-wrap under whoNew with
// newKs, persisting each key as it's migrated. It aborts at the first
// crypto or I/O failure, leaving keys already migrated in this call under
// whoNew/newKs and the remainder untouched — the caller (card package) maps
// the returned statuses into the spec's early-abort response (§4.4, §4.5).
func (s *Store) RewrapKeys(whoOld acs.Credential, oldKs cryptoprim.Keystring, whoNew acs.Credential, newKs cryptoprim.Keystring) map[KeyPurpose]ChksStatus {
	results := make(map[KeyPurpose]ChksStatus, len(allPurposes))
	for _, purpose := range allPurposes {
		rec, ok := s.keys[purpose]
		if !ok || rec.WrappedBy != whoOld {
			results[purpose] = ChksAbsent
			continue
		}

		priv, err := s.crypto.UnwrapKey(oldKs, rec.Wrapped)
		if err != nil {
			results[purpose] = ChksCryptoFail
			return results
		}

		rewrapped, err := s.crypto.WrapKey(newKs, priv)
		if err != nil {
			results[purpose] = ChksIOFail
			return results
		}

		s.keys[purpose] = keyRecord{Wrapped: rewrapped, WrappedBy: whoNew}
		if err := s.persist(); err != nil {
			results[purpose] = ChksIOFail
			return results
		}
		results[purpose] = ChksOK
	}
	return results
}
