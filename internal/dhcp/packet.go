// Package dhcp implements the passive DHCPv4 decoder and UDP capture loop.
package dhcp

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/dhcpwatch/dhcpwatch/pkg/dhcpv4"
)

var (
	// ErrPacketTooShort is returned for inputs shorter than the fixed
	// header plus magic cookie.
	ErrPacketTooShort = errors.New("packet too short")
	// ErrBadMagicCookie is returned when the options area does not start
	// with the RFC 2131 magic cookie.
	ErrBadMagicCookie = errors.New("invalid DHCP magic cookie")
)

// Option is a single DHCP TLV. Pad (0) and End (255) are control markers
// and never appear here.
type Option struct {
	Code byte
	Data []byte
}

// optionJSON carries the payload as an integer array rather than base64 so
// persisted records stay readable and byte-exact.
type optionJSON struct {
	Code byte  `json:"code"`
	Data []int `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (o Option) MarshalJSON() ([]byte, error) {
	data := make([]int, len(o.Data))
	for i, b := range o.Data {
		data[i] = int(b)
	}
	return json.Marshal(optionJSON{Code: o.Code, Data: data})
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Option) UnmarshalJSON(b []byte) error {
	var oj optionJSON
	if err := json.Unmarshal(b, &oj); err != nil {
		return err
	}
	o.Code = oj.Code
	o.Data = make([]byte, len(oj.Data))
	for i, v := range oj.Data {
		if v < 0 || v > 255 {
			return fmt.Errorf("option %d: byte value %d out of range", oj.Code, v)
		}
		o.Data[i] = byte(v)
	}
	return nil
}

// Packet represents a decoded DHCPv4 packet (RFC 2131 §2). Options preserve
// their on-wire order; the order of Option 55's codes is the fingerprint.
type Packet struct {
	Op      dhcpv4.OpCode
	HType   dhcpv4.HardwareType
	HLen    byte
	Hops    byte
	XID     uint32
	Secs    uint16
	Flags   uint16
	CIAddr  net.IP
	YIAddr  net.IP
	SIAddr  net.IP
	GIAddr  net.IP
	CHAddr  [16]byte
	Options []Option
}

// packetPool reuses read buffers to reduce allocations in the receive path.
var packetPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, dhcpv4.MaxPacketSize)
	},
}

// GetBuffer returns a buffer from the pool.
func GetBuffer() []byte {
	return packetPool.Get().([]byte)
}

// PutBuffer returns a buffer to the pool.
func PutBuffer(b []byte) {
	packetPool.Put(b[:cap(b)])
}

// DecodePacket parses a raw DHCPv4 packet from bytes.
//
// Inputs shorter than 240 bytes or without the magic cookie fail. The TLV
// walk is best-effort: a declared option length running past the buffer
// stops parsing silently, keeping whatever options were already read.
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) < dhcpv4.MinPacketSize {
		return nil, fmt.Errorf("%w: %d bytes (minimum %d)", ErrPacketTooShort, len(data), dhcpv4.MinPacketSize)
	}

	cookie := data[dhcpv4.HeaderSize:dhcpv4.MinPacketSize]
	if cookie[0] != 99 || cookie[1] != 130 || cookie[2] != 83 || cookie[3] != 99 {
		return nil, fmt.Errorf("%w: % x", ErrBadMagicCookie, cookie)
	}

	p := &Packet{}
	p.Op = dhcpv4.OpCode(data[0])
	p.HType = dhcpv4.HardwareType(data[1])
	p.HLen = data[2]
	p.Hops = data[3]
	p.XID = binary.BigEndian.Uint32(data[4:8])
	p.Secs = binary.BigEndian.Uint16(data[8:10])
	p.Flags = binary.BigEndian.Uint16(data[10:12])
	p.CIAddr = dhcpv4.BytesToIP(data[12:16])
	p.YIAddr = dhcpv4.BytesToIP(data[16:20])
	p.SIAddr = dhcpv4.BytesToIP(data[20:24])
	p.GIAddr = dhcpv4.BytesToIP(data[24:28])
	copy(p.CHAddr[:], data[28:44])

	p.Options = decodeOptions(data[dhcpv4.MinPacketSize:])

	return p, nil
}

// decodeOptions walks the TLV area. Pad bytes are skipped, End terminates,
// and a length overrun truncates the walk without error.
func decodeOptions(data []byte) []Option {
	var opts []Option
	i := 0
	for i < len(data) {
		code := data[i]
		switch code {
		case byte(dhcpv4.OptionPad):
			i++
			continue
		case byte(dhcpv4.OptionEnd):
			return opts
		}
		if i+1 >= len(data) {
			return opts
		}
		length := int(data[i+1])
		if i+2+length > len(data) {
			return opts
		}
		value := make([]byte, length)
		copy(value, data[i+2:i+2+length])
		opts = append(opts, Option{Code: code, Data: value})
		i += 2 + length
	}
	return opts
}

// OptionData returns the payload of the first option with the given code.
func (p *Packet) OptionData(code byte) ([]byte, bool) {
	for _, opt := range p.Options {
		if opt.Code == code {
			return opt.Data, true
		}
	}
	return nil, false
}

// MACAddress renders the first HLen bytes of CHAddr as lowercase
// colon-separated hex. An HLen over 16 yields an empty string.
func (p *Packet) MACAddress() string {
	if p.HLen > 16 {
		return ""
	}
	return dhcpv4.FormatMAC(p.CHAddr[:p.HLen])
}

// MessageType returns the DHCP message type from Option 53, or 0 if absent.
func (p *Packet) MessageType() dhcpv4.MessageType {
	if data, ok := p.OptionData(byte(dhcpv4.OptionDHCPMessageType)); ok && len(data) >= 1 {
		return dhcpv4.MessageType(data[0])
	}
	return 0
}

// MessageTypeName returns the named message type, UNKNOWN when Option 53 is
// absent or carries an unnamed value.
func (p *Packet) MessageTypeName() string {
	return p.MessageType().String()
}

// Fingerprint returns Option 55's codes as a comma-separated decimal list
// in wire order, or the empty string when the option is absent.
func (p *Packet) Fingerprint() string {
	data, ok := p.OptionData(byte(dhcpv4.OptionParameterRequestList))
	if !ok {
		return ""
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ",")
}

// VendorClass returns Option 60 as UTF-8, replacing ill-formed sequences.
// The second return is false when the option is absent.
func (p *Packet) VendorClass() (string, bool) {
	data, ok := p.OptionData(byte(dhcpv4.OptionVendorClassID))
	if !ok {
		return "", false
	}
	return strings.ToValidUTF8(string(data), "�"), true
}

// HostnameOption returns Option 12 as a string, empty when absent.
func (p *Packet) HostnameOption() string {
	data, ok := p.OptionData(byte(dhcpv4.OptionHostname))
	if !ok {
		return ""
	}
	return strings.ToValidUTF8(string(data), "�")
}
