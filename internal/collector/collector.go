package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sifan077/VisitAudit/internal/app/model"
	"go.uber.org/zap"
)

// Environment is a snapshot of what the visitor's browser exposes to the page.
type Environment struct {
	PageURL       string
	Referrer      string
	UserAgent     string
	Language      string
	Languages     []string
	Platform      string
	CookieEnabled bool
	OnLine        bool

	ScreenWidth      int
	ScreenHeight     int
	ScreenColorDepth int
	ScreenPixelDepth int
	WindowWidth      int
	WindowHeight     int

	// Timezone is an IANA zone name such as "Australia/Adelaide". It doubles as the
	// location hint.
	Timezone string
}

// Position is a single position fix.
type Position struct {
	Latitude         float64
	Longitude        float64
	Accuracy         float64
	Altitude         *float64
	AltitudeAccuracy *float64
	Heading          *float64
	Speed            *float64
}

// Geolocator requests one position fix. A denial or timeout is reported as an error.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (*Position, error)
}

// Transport delivers a finished record to the ingestion endpoint.
type Transport interface {
	Send(ctx context.Context, visit *model.VisitRecord) error
}

// Result describes what happened to one page view.
type Result struct {
	Visit       *model.VisitRecord
	Located     bool
	LocateError error
	SendError   error
}

// Collector builds one VisitRecord per page view and transmits it exactly once.
type Collector struct {
	geo       Geolocator
	transport Transport
	logger    *zap.Logger
	now       func() time.Time

	geoTimeout time.Duration
}

// DefaultGeoTimeout bounds how long a page view waits for a position fix before sending without one.
const DefaultGeoTimeout = 8 * time.Second

// Option customizes a Collector.
type Option func(*Collector)

// WithGeolocator enables the position request. Without one the record is sent at once.
func WithGeolocator(geo Geolocator) Option {
	return func(c *Collector) { c.geo = geo }
}

// WithLogger sets the logger used for send failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

// WithGeoTimeout overrides how long Collect waits for the position request. Non-positive values are ignored.
func WithGeoTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.geoTimeout = d
		}
	}
}

// WithClock overrides the clock used for the client timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// New returns a collector that sends through transport.
func New(transport Transport, opts ...Option) *Collector {
	c := &Collector{transport: transport, logger: zap.NewNop(), now: time.Now, geoTimeout: DefaultGeoTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect reads env, attaches a position fix when one is granted, and sends the record.
// Every branch sends exactly once; a failed send is reported in the result, never retried.
func (c *Collector) Collect(ctx context.Context, env Environment) Result {
	visit := Snapshot(env, c.now())
	res := Result{Visit: visit}

	if c.geo != nil {
		pos, err := c.locate(ctx)
		switch {
		case err != nil:
			res.LocateError = err
		case pos == nil:
			res.LocateError = errors.New("geolocation: empty position")
		default:
			attachPosition(visit, pos)
			res.Located = true
		}
	}

	if err := c.transport.Send(ctx, visit); err != nil {
		c.logger.Warn("failed to send visit", zap.Error(err))
		res.SendError = err
	}
	return res
}

type fix struct {
	pos *Position
	err error
}

// locate asks for a position and gives up after geoTimeout, even when the geolocator ignores ctx.
func (c *Collector) locate(ctx context.Context) (*Position, error) {
	geoCtx, cancel := context.WithTimeout(ctx, c.geoTimeout)
	defer cancel()

	done := make(chan fix, 1)
	go func() {
		pos, err := c.geo.CurrentPosition(geoCtx)
		done <- fix{pos: pos, err: err}
	}()

	select {
	case f := <-done:
		return f.pos, f.err
	case <-geoCtx.Done():
		return nil, fmt.Errorf("geolocation: %w", geoCtx.Err())
	}
}

// Snapshot converts env into an unsent record stamped with the client time.
func Snapshot(env Environment, now time.Time) *model.VisitRecord {
	visit := &model.VisitRecord{
		Timestamp:         now.UTC(),
		UserAgent:         env.UserAgent,
		Language:          env.Language,
		Languages:         env.Languages,
		Platform:          env.Platform,
		CookieEnabled:     env.CookieEnabled,
		OnLine:            env.OnLine,
		ScreenWidth:       env.ScreenWidth,
		ScreenHeight:      env.ScreenHeight,
		ScreenColorDepth:  env.ScreenColorDepth,
		ScreenPixelDepth:  env.ScreenPixelDepth,
		WindowWidth:       env.WindowWidth,
		WindowHeight:      env.WindowHeight,
		Timezone:          env.Timezone,
		EstimatedLocation: env.Timezone,
		URL:               env.PageURL,
		Referrer:          env.Referrer,
	}

	if u, err := url.Parse(env.PageURL); err == nil {
		q := u.Query()
		visit.Email = q.Get("email")
		visit.Token = q.Get("token")
		visit.Source = q.Get("source")
	}
	return visit
}

func attachPosition(visit *model.VisitRecord, pos *Position) {
	lat, lng, acc := pos.Latitude, pos.Longitude, pos.Accuracy
	visit.Latitude = &lat
	visit.Longitude = &lng
	visit.Accuracy = &acc
	visit.Altitude = pos.Altitude
	visit.AltitudeAccuracy = pos.AltitudeAccuracy
	visit.Heading = pos.Heading
	visit.Speed = pos.Speed
}
