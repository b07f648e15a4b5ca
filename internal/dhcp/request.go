package dhcp

import (
	"net"
	"time"

	"github.com/dhcpwatch/dhcpwatch/pkg/dhcpv4"
)

// Request is the enriched observation record built from one decoded packet.
// It is immutable after the processor finishes constructing it; the history
// ring, broadcast hub, request log, and store all share the same pointer.
type Request struct {
	Timestamp   string   `json:"timestamp"`
	SourceIP    string   `json:"source_ip"`
	SourcePort  int      `json:"source_port"`
	MACAddress  string   `json:"mac_address"`
	MessageType string   `json:"message_type"`
	XID         string   `json:"xid"`
	Fingerprint string   `json:"fingerprint"`
	VendorClass *string  `json:"vendor_class,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	ReverseDNS  string   `json:"reverse_dns,omitempty"`
	OSName      *string  `json:"os_name,omitempty"`
	DeviceClass *string  `json:"device_class,omitempty"`

	DetectionMethod *string  `json:"detection_method,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	SMBDialect      *string  `json:"smb_dialect,omitempty"`
	SMBBuild        *int     `json:"smb_build,omitempty"`

	RawOptions []Option `json:"raw_options"`
}

// NewRequest builds the base observation record from a decoded packet and
// its UDP source. Detection fields are filled in later by the processor.
func NewRequest(p *Packet, src *net.UDPAddr) *Request {
	req := &Request{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		MACAddress:  p.MACAddress(),
		MessageType: p.MessageTypeName(),
		XID:         dhcpv4.FormatXID(p.XID),
		Fingerprint: p.Fingerprint(),
		Hostname:    p.HostnameOption(),
		RawOptions:  cloneOptions(p.Options),
	}
	if src != nil {
		req.SourceIP = src.IP.String()
		req.SourcePort = src.Port
	}
	if vc, ok := p.VendorClass(); ok {
		req.VendorClass = &vc
	}
	return req
}

// VendorClassValue returns the vendor class or the empty string.
func (r *Request) VendorClassValue() string {
	if r.VendorClass == nil {
		return ""
	}
	return *r.VendorClass
}

func cloneOptions(opts []Option) []Option {
	out := make([]Option, len(opts))
	for i, opt := range opts {
		data := make([]byte, len(opt.Data))
		copy(data, opt.Data)
		out[i] = Option{Code: opt.Code, Data: data}
	}
	return out
}
