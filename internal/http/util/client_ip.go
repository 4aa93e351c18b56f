package util

import (
	"net/url"
	"strings"

	"github.com/sifan077/VisitAudit/internal/app/model"
)

// UnknownIP is recorded when no header names the client address.
const UnknownIP = "unknown"

// HeaderFunc returns the value of a request header, or "" when absent.
type HeaderFunc func(name string) string

// ClientIP resolves the visitor address: edge-provided headers first, then the first
// X-Forwarded-For entry, then X-Real-IP.
func ClientIP(header HeaderFunc) string {
	for _, name := range []string{"CF-Connecting-IP", "X-Vercel-Forwarded-For"} {
		if ip := strings.TrimSpace(header(name)); ip != "" {
			return ip
		}
	}

	if xff := header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(header("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownIP
}

// NetworkFromHeaders builds the server-owned network fields of a visit.
func NetworkFromHeaders(header HeaderFunc) model.NetworkInfo {
	country := header("X-Vercel-IP-Country")
	if country == "" {
		country = header("CF-IPCountry")
	}

	return model.NetworkInfo{
		IPAddress:      ClientIP(header),
		AcceptLanguage: header("Accept-Language"),
		AcceptEncoding: header("Accept-Encoding"),
		Connection:     header("Connection"),
		Host:           header("Host"),
		Origin:         header("Origin"),
		Referer:        header("Referer"),
		Country:        country,
		Region:         header("X-Vercel-IP-Region"),
		City:           decodeHeader(header("X-Vercel-IP-City")),
		EdgeTraceID:    header("CF-Ray"),
	}
}

func decodeHeader(v string) string {
	if v == "" {
		return ""
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}
