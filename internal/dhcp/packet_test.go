package dhcp

import (
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/dhcpwatch/dhcpwatch/pkg/dhcpv4"
)

// buildTestRequest builds a minimal DHCPREQUEST with the given trailing
// options appended after the message-type option.
func buildTestRequest(mac []byte, xid uint32, extra ...byte) []byte {
	pkt := make([]byte, 300)
	pkt[0] = byte(dhcpv4.OpCodeBootRequest)
	pkt[1] = byte(dhcpv4.HardwareTypeEthernet)
	pkt[2] = byte(len(mac))
	pkt[3] = 0 // Hops

	pkt[4] = byte(xid >> 24)
	pkt[5] = byte(xid >> 16)
	pkt[6] = byte(xid >> 8)
	pkt[7] = byte(xid)

	copy(pkt[28:44], mac)
	copy(pkt[236:240], dhcpv4.MagicCookie)

	i := 240
	pkt[i] = byte(dhcpv4.OptionDHCPMessageType)
	pkt[i+1] = 1
	pkt[i+2] = byte(dhcpv4.MessageTypeRequest)
	i += 3
	i += copy(pkt[i:], extra)
	pkt[i] = byte(dhcpv4.OptionEnd)

	return pkt
}

func TestDecodePacket(t *testing.T) {
	mac := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	data := buildTestRequest(mac, 0xDEADBEEF)

	pkt, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}

	if pkt.Op != dhcpv4.OpCodeBootRequest {
		t.Errorf("Op = %d, want %d", pkt.Op, dhcpv4.OpCodeBootRequest)
	}
	if pkt.HLen != 6 {
		t.Errorf("HLen = %d, want 6", pkt.HLen)
	}
	if pkt.XID != 0xDEADBEEF {
		t.Errorf("XID = 0x%08X, want 0xDEADBEEF", pkt.XID)
	}
	if got := pkt.MACAddress(); got != "00:11:22:33:44:55" {
		t.Errorf("MACAddress = %q, want 00:11:22:33:44:55", got)
	}
	if pkt.MessageType() != dhcpv4.MessageTypeRequest {
		t.Errorf("MessageType = %d, want REQUEST(%d)", pkt.MessageType(), dhcpv4.MessageTypeRequest)
	}
	if got := pkt.MessageTypeName(); got != "REQUEST" {
		t.Errorf("MessageTypeName = %q, want REQUEST", got)
	}
}

func TestDecodePacketTooShort(t *testing.T) {
	for _, n := range []int{0, 100, 236, 239} {
		if _, err := DecodePacket(make([]byte, n)); err == nil {
			t.Errorf("expected error for %d-byte packet, got nil", n)
		}
	}
}

func TestDecodePacketBadMagicCookie(t *testing.T) {
	// Exactly 240 bytes, cookie missing
	data := make([]byte, 240)
	data[0] = 1
	data[1] = 1
	data[2] = 6
	data[236] = 0xFF
	data[237] = 0xFF
	data[238] = 0xFF
	data[239] = 0xFF

	_, err := DecodePacket(data)
	if err == nil {
		t.Error("expected error for bad magic cookie, got nil")
	}
}

func TestDecodeOptionsOrderPreserved(t *testing.T) {
	mac := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	data := buildTestRequest(mac, 0x12345678,
		55, 4, 1, 121, 3, 6, // parameter request list, deliberately unsorted
		60, 8, 'M', 'S', 'F', 'T', ' ', '5', '.', '0',
		12, 4, 'h', 'o', 's', 't',
	)

	pkt, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	if len(pkt.Options) != 4 {
		t.Fatalf("len(Options) = %d, want 4", len(pkt.Options))
	}
	wantCodes := []byte{53, 55, 60, 12}
	for i, want := range wantCodes {
		if pkt.Options[i].Code != want {
			t.Errorf("Options[%d].Code = %d, want %d", i, pkt.Options[i].Code, want)
		}
	}
	if got := pkt.Fingerprint(); got != "1,121,3,6" {
		t.Errorf("Fingerprint = %q, want 1,121,3,6", got)
	}
	if vc, ok := pkt.VendorClass(); !ok || vc != "MSFT 5.0" {
		t.Errorf("VendorClass = %q (present=%v), want MSFT 5.0", vc, ok)
	}
	if got := pkt.HostnameOption(); got != "host" {
		t.Errorf("HostnameOption = %q, want host", got)
	}
}

func TestDecodeOptionsPadSkipped(t *testing.T) {
	data := buildTestRequest([]byte{1, 2, 3, 4, 5, 6}, 1,
		0, 0, 0, // pad bytes between options
		12, 2, 'p', 'c',
	)
	pkt, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	if got := pkt.HostnameOption(); got != "pc" {
		t.Errorf("HostnameOption = %q, want pc", got)
	}
}

func TestDecodeOptionsOverrunTruncates(t *testing.T) {
	// Option 55 declares 200 bytes but the buffer ends first. The options
	// already parsed must survive and no error may surface.
	data := make([]byte, 248)
	data[0] = 1
	data[1] = 1
	data[2] = 6
	copy(data[236:240], dhcpv4.MagicCookie)
	data[240] = 53
	data[241] = 1
	data[242] = 1
	data[243] = 55
	data[244] = 200
	data[245] = 1
	data[246] = 3
	data[247] = 6

	pkt, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	if len(pkt.Options) != 1 {
		t.Fatalf("len(Options) = %d, want 1", len(pkt.Options))
	}
	if pkt.Options[0].Code != 53 {
		t.Errorf("Options[0].Code = %d, want 53", pkt.Options[0].Code)
	}
	if got := pkt.Fingerprint(); got != "" {
		t.Errorf("Fingerprint = %q, want empty", got)
	}
}

func TestDecodeOptionsDanglingCode(t *testing.T) {
	// A lone option code at the very end of the buffer, no length byte.
	data := make([]byte, 241)
	data[0] = 1
	data[1] = 1
	data[2] = 6
	copy(data[236:240], dhcpv4.MagicCookie)
	data[240] = 55

	pkt, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	if len(pkt.Options) != 0 {
		t.Errorf("len(Options) = %d, want 0", len(pkt.Options))
	}
}

func TestMACAddressZeroHLen(t *testing.T) {
	data := buildTestRequest(nil, 7)
	pkt, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	if got := pkt.MACAddress(); got != "" {
		t.Errorf("MACAddress = %q, want empty for hlen=0", got)
	}
}

func TestMACAddressOversizedHLen(t *testing.T) {
	data := buildTestRequest([]byte{1, 2, 3, 4, 5, 6}, 7)
	data[2] = 17 // hlen beyond the chaddr buffer
	pkt, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
	if got := pkt.MACAddress(); got != "" {
		t.Errorf("MACAddress = %q, want empty for hlen=17", got)
	}
}

func TestMessageTypeNames(t *testing.T) {
	tests := []struct {
		code byte
		want string
	}{
		{1, "DISCOVER"},
		{3, "REQUEST"},
		{4, "DECLINE"},
		{5, "ACK"},
		{6, "NAK"},
		{7, "RELEASE"},
		{8, "INFORM"},
		{99, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			pkt := &Packet{Options: []Option{{Code: 53, Data: []byte{tt.code}}}}
			if got := pkt.MessageTypeName(); got != tt.want {
				t.Errorf("MessageTypeName() = %q, want %q", got, tt.want)
			}
		})
	}

	// Option 53 absent
	pkt := &Packet{}
	if got := pkt.MessageTypeName(); got != "UNKNOWN" {
		t.Errorf("MessageTypeName() = %q, want UNKNOWN for missing option", got)
	}
}

func TestOptionJSONRoundTrip(t *testing.T) {
	in := []Option{
		{Code: 53, Data: []byte{3}},
		{Code: 55, Data: []byte{1, 3, 6, 15, 31, 33, 43, 44, 46, 47, 121, 249, 252, 12}},
		{Code: 60, Data: []byte("MSFT 5.0")},
	}

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var out []Option
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Code != in[i].Code {
			t.Errorf("option %d: code = %d, want %d", i, out[i].Code, in[i].Code)
		}
		if string(out[i].Data) != string(in[i].Data) {
			t.Errorf("option %d: data = %v, want %v", i, out[i].Data, in[i].Data)
		}
	}
}

func TestNewRequest(t *testing.T) {
	mac := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	data := buildTestRequest(mac, 0xCAFEBABE,
		55, 3, 1, 3, 6,
		60, 8, 'M', 'S', 'F', 'T', ' ', '5', '.', '0',
	)
	pkt, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}

	src := &net.UDPAddr{IP: net.IPv4(192, 0, 2, 10), Port: 68}
	req := NewRequest(pkt, src)

	if req.MACAddress != "00:11:22:33:44:55" {
		t.Errorf("MACAddress = %q", req.MACAddress)
	}
	if req.XID != "cafebabe" {
		t.Errorf("XID = %q, want cafebabe", req.XID)
	}
	if req.MessageType != "REQUEST" {
		t.Errorf("MessageType = %q, want REQUEST", req.MessageType)
	}
	if req.SourceIP != "192.0.2.10" || req.SourcePort != 68 {
		t.Errorf("source = %s:%d, want 192.0.2.10:68", req.SourceIP, req.SourcePort)
	}
	if req.Fingerprint != "1,3,6" {
		t.Errorf("Fingerprint = %q, want 1,3,6", req.Fingerprint)
	}
	if req.VendorClassValue() != "MSFT 5.0" {
		t.Errorf("VendorClass = %q, want MSFT 5.0", req.VendorClassValue())
	}
	if len(req.RawOptions) != len(pkt.Options) {
		t.Errorf("RawOptions length = %d, want %d", len(req.RawOptions), len(pkt.Options))
	}

	// Fingerprint recovered from raw options must match the stored CSV.
	for _, opt := range req.RawOptions {
		if opt.Code == 55 {
			parts := make([]string, len(opt.Data))
			for i, b := range opt.Data {
				parts[i] = strconv.Itoa(int(b))
			}
			if got := strings.Join(parts, ","); got != req.Fingerprint {
				t.Errorf("fingerprint from raw options = %q, want %q", got, req.Fingerprint)
			}
		}
	}
}
