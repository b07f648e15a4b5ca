package smb

// Dialect wire codes from the SMB2 NEGOTIATE response (MS-SMB2 §2.2.4).
const (
	DialectSMB202 = 0x0202
	DialectSMB210 = 0x0210
	DialectSMB300 = 0x0300
	DialectSMB302 = 0x0302
	DialectSMB311 = 0x0311
)

// DialectName maps a DialectRevision code to its display label.
func DialectName(code uint16) string {
	switch code {
	case DialectSMB202:
		return "SMB 2.0.2"
	case DialectSMB210:
		return "SMB 2.1"
	case DialectSMB300:
		return "SMB 3.0"
	case DialectSMB302:
		return "SMB 3.0.2"
	case DialectSMB311:
		return "SMB 3.1.1"
	default:
		return "SMB (unknown)"
	}
}

// DialectToOS derives a coarse Windows version and build estimate from the
// negotiated dialect alone. Build 0 means no estimate.
func DialectToOS(dialect string) (string, int) {
	switch dialect {
	case "SMB 3.1.1":
		// Windows 10 1607+ and Windows 11 negotiate 3.1.1.
		return "Windows 10/11 (SMB 3.1.1)", 19041
	case "SMB 3.0", "SMB 3.0.2":
		return "Windows 8.1/10 (SMB 3.0)", 9600
	case "SMB 2.1":
		return "Windows 7/Server 2008 R2", 7601
	case "SMB 2.0.2":
		return "Windows Vista/Server 2008", 6002
	default:
		return "Windows (unknown SMB)", 0
	}
}

// BuildToWindowsVersion maps an OS build number to a friendly release
// label. Specific builds are checked before the broader ranges. This is the
// groundwork for NTLMSSP-based build extraction; the dialect probe does not
// call it.
func BuildToWindowsVersion(build int) string {
	switch build {
	case 19042:
		return "Windows 10 20H2"
	case 19043:
		return "Windows 10 21H1"
	case 19044:
		return "Windows 10 21H2"
	case 19045:
		return "Windows 10 22H2"
	case 17763:
		return "Windows 10 1809"
	case 17134:
		return "Windows 10 1803"
	case 16299:
		return "Windows 10 1709"
	case 15063:
		return "Windows 10 1703"
	case 14393:
		return "Windows 10 1607"
	case 10586:
		return "Windows 10 1511"
	case 10240:
		return "Windows 10 1507"
	case 9600:
		return "Windows 8.1"
	case 9200:
		return "Windows 8"
	}

	switch {
	case build >= 26000 && build <= 29999:
		return "Windows 11 (Insider/Future)"
	case build >= 22631 && build <= 22999:
		return "Windows 11 23H2"
	case build >= 22621 && build <= 22630:
		return "Windows 11 22H2"
	case build >= 22000 && build <= 22620:
		return "Windows 11 21H2"
	case build == 19041:
		return "Windows 10 2004/20H2/21H1"
	case build >= 18362 && build <= 18363:
		return "Windows 10 1903/1909"
	case build >= 7600 && build <= 7601:
		return "Windows 7"
	default:
		return "Windows (unknown version)"
	}
}
