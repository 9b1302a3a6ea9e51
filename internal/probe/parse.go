package probe

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/bilal/wifiwatch/internal/model"
)

var (
	signalRe = regexp.MustCompile(`-?\d+`)
	floatRe  = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ParseStationDump parses `iw dev <if> station dump` output. Fields that
// cannot be parsed are left absent.
func ParseStationDump(out []byte) []model.StationInfo {
	var (
		stations []model.StationInfo
		current  *model.StationInfo
	)

	flush := func() {
		if current != nil {
			stations = append(stations, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Station ") {
			flush()
			fields := strings.Fields(line)
			current = &model.StationInfo{}
			if len(fields) >= 2 {
				current.MAC = strings.ToLower(fields[1])
			}
			continue
		}
		if current == nil {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "signal":
			if m := signalRe.FindString(value); m != "" {
				if v, err := strconv.Atoi(m); err == nil {
					current.SignalDbm = &v
				}
			}
		case "tx bitrate":
			if v, ok := parseLeadingFloat(value); ok {
				current.DataRateMbps = &v
			}
		case "rx bytes":
			if v, err := strconv.ParseUint(value, 10, 64); err == nil {
				current.RxBytes = &v
			}
		}
	}
	flush()
	return stations
}

// ParseLink parses `iw dev <if> link` output.
func ParseLink(out []byte) model.AssociationInfo {
	var info model.AssociationInfo

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Not connected"):
			return model.AssociationInfo{}
		case strings.HasPrefix(line, "Connected to "):
			fields := strings.Fields(strings.TrimPrefix(line, "Connected to "))
			if len(fields) > 0 {
				info.AccessPoint = model.Ptr(strings.ToLower(fields[0]))
			}
		case strings.HasPrefix(line, "SSID:"):
			if ssid := strings.TrimSpace(strings.TrimPrefix(line, "SSID:")); ssid != "" {
				info.SSID = &ssid
			}
		case strings.HasPrefix(line, "freq:"):
			if v, ok := parseLeadingFloat(strings.TrimPrefix(line, "freq:")); ok {
				info.FrequencyMHz = model.Ptr(int(v))
			}
		}
	}
	return info
}

// ParseAuthMethod maps `wpa_cli status` output to an AuthMethod. The
// key_mgmt value is preferred; without one the raw output is searched
// case-sensitively so lowercase keys such as wpa_state do not match.
func ParseAuthMethod(out []byte) model.AuthMethod {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if ok && key == "key_mgmt" {
			value = strings.ToUpper(value)
			if strings.Contains(value, "SAE") {
				return model.AuthWPA3
			}
			return authFromText(value)
		}
	}
	return authFromText(string(out))
}

func authFromText(text string) model.AuthMethod {
	switch {
	case strings.Contains(text, "WPA3"):
		return model.AuthWPA3
	case strings.Contains(text, "WPA2"):
		return model.AuthWPA2
	case strings.Contains(text, "WPA"):
		return model.AuthWPA
	default:
		return model.AuthOpen
	}
}

func parseLeadingFloat(s string) (float64, bool) {
	m := floatRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
