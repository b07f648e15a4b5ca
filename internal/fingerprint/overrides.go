package fingerprint

import (
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// overridesFile is the on-disk shape of mac_os_mapping.toml:
//
//	[mappings]
//	  [mappings."aa:bb:cc:dd:ee:ff"]
//	  os_name = "Printer Firmware"
//	  device_class = "Printer"
//	  vendor = "HP"
type overridesFile struct {
	Mappings map[string]OsInfo `toml:"mappings"`
}

// LoadOverrides reads the MAC override side file. A missing file is normal
// and yields an empty map; a parse failure is logged at warning level and
// also yields an empty map. MAC keys are normalized to lowercase.
func LoadOverrides(path string, logger *slog.Logger) map[string]OsInfo {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("MAC override file unreadable, continuing without overrides",
				"path", path, "error", err)
		}
		return map[string]OsInfo{}
	}

	var f overridesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		logger.Warn("MAC override file unparsable, continuing without overrides",
			"path", path, "error", err)
		return map[string]OsInfo{}
	}

	out := make(map[string]OsInfo, len(f.Mappings))
	for mac, info := range f.Mappings {
		out[strings.ToLower(mac)] = info
	}
	return out
}
