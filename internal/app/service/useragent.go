package service

import "strings"

// DeviceInfo is a coarse classification of a user agent string.
type DeviceInfo struct {
	DeviceType string
	Browser    string
	OS         string
}

// Label renders the classification as a single bucket key.
func (d DeviceInfo) Label() string {
	return d.DeviceType + " / " + d.Browser + " / " + d.OS
}

// ParseUserAgent classifies a user agent by substring matching. Unknown parts stay "Unknown".
func ParseUserAgent(userAgent string) DeviceInfo {
	info := DeviceInfo{
		DeviceType: "Desktop",
		Browser:    "Unknown",
		OS:         "Unknown",
	}

	ua := strings.ToLower(userAgent)
	if ua == "" {
		info.DeviceType = "Unknown"
		return info
	}

	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		info.DeviceType = "Tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone"):
		info.DeviceType = "Mobile"
	}

	// Edge and Opera carry "chrome" too, so they are matched first.
	switch {
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge"):
		info.Browser = "Edge"
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		info.Browser = "Opera"
	case strings.Contains(ua, "firefox") || strings.Contains(ua, "fxios"):
		info.Browser = "Firefox"
	case strings.Contains(ua, "chrome") || strings.Contains(ua, "crios"):
		info.Browser = "Chrome"
	case strings.Contains(ua, "safari"):
		info.Browser = "Safari"
	}

	switch {
	case strings.Contains(ua, "android"):
		info.OS = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		info.OS = "iOS"
	case strings.Contains(ua, "windows"):
		info.OS = "Windows"
	case strings.Contains(ua, "mac os"):
		info.OS = "macOS"
	case strings.Contains(ua, "linux"):
		info.OS = "Linux"
	}

	return info
}
