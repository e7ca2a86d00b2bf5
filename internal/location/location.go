// Package location supplies the device position used to place new spots.
package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kamikazebr/parkspot/internal/apperr"
)

type Position struct {
	Latitude  float64
	Longitude float64
	// Accuracy in metres, 0 when unknown
	Accuracy  float64
	Timestamp time.Time
}

// Provider returns the current position. apperr.ErrPermissionDenied is
// terminal: asking again will not change the answer.
type Provider interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Static always reports the same fix
type Static struct {
	lat, lon float64
	now      func() time.Time
}

func NewStatic(lat, lon float64) (*Static, error) {
	if lat < -90 || lat > 90 {
		return nil, apperr.Invalid(fmt.Sprintf("latitude %v out of range", lat), nil)
	}
	if lon < -180 || lon > 180 {
		return nil, apperr.Invalid(fmt.Sprintf("longitude %v out of range", lon), nil)
	}
	return &Static{lat: lat, lon: lon, now: time.Now}, nil
}

func (s *Static) CurrentPosition(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position{Latitude: s.lat, Longitude: s.lon, Timestamp: s.now()}, nil
}

type denied struct{}

// Denied is a provider for a device whose user refused location access
func Denied() Provider {
	return denied{}
}

func (denied) CurrentPosition(context.Context) (Position, error) {
	return Position{}, fmt.Errorf("location: %w", apperr.ErrPermissionDenied)
}

// FromStrings builds a provider from configured coordinates. Both empty
// means no location was granted.
func FromStrings(lat, lon string) (Provider, error) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" && lon == "" {
		return Denied(), nil
	}
	if lat == "" || lon == "" {
		return nil, apperr.Invalid("both latitude and longitude must be set", nil)
	}

	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, apperr.Invalid("latitude", err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, apperr.Invalid("longitude", err)
	}
	return NewStatic(la, lo)
}

// Session wraps a provider and remembers a permission denial so later calls
// fail without asking again.
type Session struct {
	provider Provider

	mu     sync.Mutex
	denied bool
}

func NewSession(p Provider) *Session {
	return &Session{provider: p}
}

func (s *Session) CurrentPosition(ctx context.Context) (Position, error) {
	s.mu.Lock()
	if s.denied {
		s.mu.Unlock()
		return Position{}, fmt.Errorf("location: %w", apperr.ErrPermissionDenied)
	}
	s.mu.Unlock()

	pos, err := s.provider.CurrentPosition(ctx)
	if errors.Is(err, apperr.ErrPermissionDenied) {
		s.mu.Lock()
		s.denied = true
		s.mu.Unlock()
	}
	return pos, err
}
