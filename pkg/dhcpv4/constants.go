// Package dhcpv4 provides wire-format constants and small encoding helpers
// for DHCPv4 packets.
package dhcpv4

// DHCP Message Types (RFC 2131 §9.6)
type MessageType byte

const (
	MessageTypeDiscover MessageType = 1
	MessageTypeOffer    MessageType = 2
	MessageTypeRequest  MessageType = 3
	MessageTypeDecline  MessageType = 4
	MessageTypeAck      MessageType = 5
	MessageTypeNak      MessageType = 6
	MessageTypeRelease  MessageType = 7
	MessageTypeInform   MessageType = 8
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeDiscover:
		return "DISCOVER"
	case MessageTypeOffer:
		return "OFFER"
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeDecline:
		return "DECLINE"
	case MessageTypeAck:
		return "ACK"
	case MessageTypeNak:
		return "NAK"
	case MessageTypeRelease:
		return "RELEASE"
	case MessageTypeInform:
		return "INFORM"
	default:
		return "UNKNOWN"
	}
}

// DHCP Op Codes (RFC 2131 §2)
type OpCode byte

const (
	OpCodeBootRequest OpCode = 1 // BOOTREQUEST
	OpCodeBootReply   OpCode = 2 // BOOTREPLY
)

// Hardware Types (RFC 1700)
type HardwareType byte

const (
	HardwareTypeEthernet HardwareType = 1
)

// DHCP Option Codes (RFC 2132 and extensions). Only the codes the observer
// interprets are named; everything else is carried through as a raw TLV.
type OptionCode byte

const (
	OptionPad                  OptionCode = 0
	OptionSubnetMask           OptionCode = 1
	OptionRouter               OptionCode = 3
	OptionDomainNameServer     OptionCode = 6
	OptionHostname             OptionCode = 12
	OptionDomainName           OptionCode = 15
	OptionBroadcastAddress     OptionCode = 28
	OptionRequestedIP          OptionCode = 50
	OptionIPLeaseTime          OptionCode = 51
	OptionDHCPMessageType      OptionCode = 53
	OptionServerIdentifier     OptionCode = 54
	OptionParameterRequestList OptionCode = 55
	OptionMaxDHCPMessageSize   OptionCode = 57
	OptionVendorClassID        OptionCode = 60
	OptionClientIdentifier     OptionCode = 61
	OptionUserClass            OptionCode = 77
	OptionClientFQDN           OptionCode = 81
	OptionRelayAgentInfo       OptionCode = 82
	OptionEnd                  OptionCode = 255
)

// DHCP Packet Size Limits
const (
	// HeaderSize is the fixed BOOTP header length before the options area.
	HeaderSize = 236
	// MinPacketSize is the shortest frame the decoder accepts: the fixed
	// header plus the four-byte magic cookie.
	MinPacketSize = 240
	// MaxPacketSize bounds the UDP read buffer.
	MaxPacketSize = 4096
)

// DHCP Ports
const (
	ServerPort = 67
	ClientPort = 68
)

// DHCP Magic Cookie (RFC 2131 §3)
var MagicCookie = []byte{99, 130, 83, 99}
