package apdu

import "testing"

func TestNewRequest_TooShort(t *testing.T) {
	if _, err := NewRequest([]byte{0x00, 0xA4, 0x04}); err == nil {
		t.Fatal("expected error for 3-byte command")
	}
}

func TestRequest_Header(t *testing.T) {
	req, err := NewRequest([]byte{0x00, 0x20, 0x00, 0x81, 0x06, '1', '2', '3', '4', '5', '6'})
	if err != nil {
		t.Fatal(err)
	}
	if req.CLA() != 0x00 || req.INS() != 0x20 || req.P1() != 0x00 || req.P2() != 0x81 {
		t.Fatalf("unexpected header: CLA=%02X INS=%02X P1=%02X P2=%02X", req.CLA(), req.INS(), req.P1(), req.P2())
	}
	if req.IsExtended() {
		t.Fatal("short-Lc APDU misidentified as extended")
	}
	if req.DataStart() != 5 {
		t.Fatalf("DataStart = %d, want 5", req.DataStart())
	}
	if req.Lc() != 6 {
		t.Fatalf("Lc = %d, want 6", req.Lc())
	}
}

func TestRequest_Extended(t *testing.T) {
	raw := make([]byte, 7+300)
	raw[0], raw[1], raw[2], raw[3] = 0x00, 0xDA, 0x01, 0x01
	raw[4] = 0x00
	raw[5], raw[6] = 0x01, 0x2C // 300
	req, err := NewRequest(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !req.IsExtended() {
		t.Fatal("expected extended-length detection")
	}
	if req.DataStart() != 7 {
		t.Fatalf("DataStart = %d, want 7", req.DataStart())
	}
	if req.Lc() != 300 {
		t.Fatalf("Lc = %d, want 300", req.Lc())
	}
}

func TestRequest_PayloadBoundsChecked(t *testing.T) {
	req, err := NewRequest([]byte{0x00, 0x2A, 0x9E, 0x9A, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := req.Payload(5); !ok {
		t.Fatal("expected in-bounds payload to succeed")
	}
	if _, ok := req.Payload(6); ok {
		t.Fatal("expected out-of-bounds payload to fail rather than panic")
	}
}

func TestRequest_ByteAt(t *testing.T) {
	req, _ := NewRequest([]byte{0x00, 0x47, 0x81, 0x00, 0x02, 0x00, 0x01})
	b, ok := req.ByteAt(5)
	if !ok || b != 0x00 {
		t.Fatalf("ByteAt(5) = %02X,%v want 00,true", b, ok)
	}
	if _, ok := req.ByteAt(50); ok {
		t.Fatal("expected out-of-range ByteAt to report ok=false")
	}
}

func TestResponse_RoundTrip(t *testing.T) {
	resp := NewResponse()
	resp.Write([]byte{0x5A, 0xD2, 0x76})
	resp.End(Success)

	if resp.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", resp.Size())
	}
	if resp.SW() != Success {
		t.Fatalf("SW() = %v, want Success", resp.SW())
	}
	if len(resp.PayloadBytes()) != 3 {
		t.Fatalf("PayloadBytes len = %d, want 3", len(resp.PayloadBytes()))
	}
}

func TestStatusWord_String(t *testing.T) {
	tests := []struct {
		sw   StatusWord
		want string
	}{
		{Success, "SUCCESS"},
		{SecurityFailure, "SECURITY_FAILURE"},
		{AuthBlocked, "AUTH_BLOCKED"},
		{WrongIns, "WRONG_INS"},
	}
	for _, tc := range tests {
		if got := tc.sw.String(); got != tc.want {
			t.Errorf("%04X.String() = %q, want %q", uint16(tc.sw), got, tc.want)
		}
	}
}
