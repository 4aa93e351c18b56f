package model

import (
	"fmt"
	"strings"
	"time"
)

// FormatVisitLog renders a human-readable block for console style sinks.
func FormatVisitLog(v *VisitRecord) string {
	var b strings.Builder

	ts := v.SeenAt()

	b.WriteString("=== UNSUBSCRIBE PAGE VISIT ===\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", ts.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "Email: %s\n", orDefault(v.Email, "Not provided"))
	fmt.Fprintf(&b, "Token: %s\n", orDefault(v.Token, "Not provided"))
	fmt.Fprintf(&b, "Source: %s\n", orDefault(v.Source, "Direct"))

	b.WriteString("\nIP Information:\n")
	fmt.Fprintf(&b, "- IP Address: %s\n", orDefault(v.IPAddress, "Unknown"))
	fmt.Fprintf(&b, "- Country: %s\n", orDefault(v.Country, "Unknown"))
	fmt.Fprintf(&b, "- Region: %s\n", orDefault(v.Region, "Unknown"))
	fmt.Fprintf(&b, "- City: %s\n", orDefault(v.City, "Unknown"))

	b.WriteString("\nDevice Information:\n")
	fmt.Fprintf(&b, "- User Agent: %s\n", v.UserAgent)
	fmt.Fprintf(&b, "- Platform: %s\n", v.Platform)
	fmt.Fprintf(&b, "- Language: %s\n", v.Language)
	fmt.Fprintf(&b, "- Screen Resolution: %dx%d\n", v.ScreenWidth, v.ScreenHeight)
	fmt.Fprintf(&b, "- Window Size: %dx%d\n", v.WindowWidth, v.WindowHeight)
	fmt.Fprintf(&b, "- Color Depth: %d\n", v.ScreenColorDepth)
	fmt.Fprintf(&b, "- Timezone: %s\n", v.Timezone)

	b.WriteString("\nNavigation:\n")
	fmt.Fprintf(&b, "- URL: %s\n", v.URL)
	fmt.Fprintf(&b, "- Referrer: %s\n", v.Referrer)

	if v.HasCoordinates() {
		b.WriteString("\nGPS Location:\n")
		fmt.Fprintf(&b, "- Coordinates: %g, %g\n", *v.Latitude, *v.Longitude)
		if v.Accuracy != nil {
			fmt.Fprintf(&b, "- Accuracy: %gm\n", *v.Accuracy)
		}
	}

	b.WriteString("=== END LOG ===")
	return b.String()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
