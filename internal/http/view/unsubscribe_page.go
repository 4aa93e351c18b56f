package view

import (
	"bytes"
	"html/template"
)

// UnsubscribePageData provides the dynamic fields required by the unsubscribe template.
type UnsubscribePageData struct {
	Title     string
	SiteName  string
	HomeURL   string
	IngestURL string
	// GeoTimeoutMillis bounds the position request; the visit is sent without coordinates once it passes.
	GeoTimeoutMillis int
}

// DefaultGeoTimeoutMillis matches the collector's default position wait.
const DefaultGeoTimeoutMillis = 8000

// The inline script sends exactly one visit per page view: immediately when geolocation
// is unavailable, otherwise after the single position request settles either way or a
// fallback timer fires for browsers that never call back.
var unsubscribePageTmpl = template.Must(template.New("unsubscribe_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<meta name="robots" content="noindex" />
	<title>{{.Title}}</title>
	<style>
		:root {
			--bg: #000;
			--text: #fff;
			--muted: #9ca3af;
			font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: var(--bg);
			color: var(--text);
			padding: 48px 16px;
		}
		main {
			max-width: 42rem;
			text-align: center;
		}
		h1 {
			font-size: 2.5rem;
			margin-bottom: 24px;
		}
		p {
			font-size: 1.1rem;
			line-height: 1.6;
		}
		a.button {
			display: inline-block;
			margin-top: 40px;
			background: var(--text);
			color: var(--bg);
			padding: 12px 32px;
			border-radius: 6px;
			text-decoration: none;
			font-weight: 500;
		}
		.muted {
			color: var(--muted);
			font-size: 0.9rem;
		}
	</style>
</head>
<body>
	<main>
		<h1>Successfully Unsubscribed</h1>
		<p>You have been successfully unsubscribed from the {{.SiteName}} email service.</p>
		<p>We're sorry to see you go! You will no longer receive promotional emails, updates about our
			experiences, or notifications about special events.</p>
		<p>If you change your mind, you can always resubscribe by contacting us directly or through our website.</p>
		<a class="button" href="{{.HomeURL}}">Return to Homepage</a>
		<p class="muted">Unsubscribing may take up to 48 hours to take effect.</p>
	</main>
	<script>
	(function () {
		var ingestURL = {{.IngestURL}};
		var geoTimeoutMs = {{.GeoTimeoutMillis}};
		var sent = false;

		function send(payload) {
			if (sent) { return; }
			sent = true;
			try {
				fetch(ingestURL, {
					method: "POST",
					headers: { "Content-Type": "application/json" },
					body: JSON.stringify(payload),
					keepalive: true
				}).catch(function () {});
			} catch (e) {}
		}

		var params = new URLSearchParams(window.location.search);
		var tz = "";
		try { tz = Intl.DateTimeFormat().resolvedOptions().timeZone || ""; } catch (e) {}

		var visit = {
			email: params.get("email") || "",
			token: params.get("token") || "",
			source: params.get("source") || "",
			timestamp: new Date().toISOString(),
			userAgent: navigator.userAgent,
			language: navigator.language,
			languages: Array.prototype.slice.call(navigator.languages || []),
			platform: navigator.platform,
			cookieEnabled: navigator.cookieEnabled,
			onLine: navigator.onLine,
			screenWidth: screen.width,
			screenHeight: screen.height,
			screenColorDepth: screen.colorDepth,
			screenPixelDepth: screen.pixelDepth,
			windowWidth: window.innerWidth,
			windowHeight: window.innerHeight,
			timezone: tz,
			estimatedLocation: tz,
			url: window.location.href,
			referrer: document.referrer
		};

		if (!navigator.geolocation) {
			send(visit);
			return;
		}

		var fallback = setTimeout(function () { send(visit); }, geoTimeoutMs + 1000);

		navigator.geolocation.getCurrentPosition(function (pos) {
			clearTimeout(fallback);
			var c = pos.coords;
			visit.latitude = c.latitude;
			visit.longitude = c.longitude;
			visit.accuracy = c.accuracy;
			if (c.altitude !== null) { visit.altitude = c.altitude; }
			if (c.altitudeAccuracy !== null) { visit.altitudeAccuracy = c.altitudeAccuracy; }
			if (c.heading !== null && !isNaN(c.heading)) { visit.heading = c.heading; }
			if (c.speed !== null) { visit.speed = c.speed; }
			send(visit);
		}, function () {
			clearTimeout(fallback);
			send(visit);
		}, { enableHighAccuracy: false, timeout: geoTimeoutMs, maximumAge: 60000 });
	})();
	</script>
</body>
</html>
`))

// RenderUnsubscribePage expands the unsubscribe page template with the provided data.
func RenderUnsubscribePage(data UnsubscribePageData) (string, error) {
	if data.Title == "" {
		data.Title = "Unsubscribed"
	}
	if data.HomeURL == "" {
		data.HomeURL = "/"
	}
	if data.IngestURL == "" {
		data.IngestURL = "/api/log-unsubscribe"
	}
	if data.GeoTimeoutMillis <= 0 {
		data.GeoTimeoutMillis = DefaultGeoTimeoutMillis
	}
	var buf bytes.Buffer
	if err := unsubscribePageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
