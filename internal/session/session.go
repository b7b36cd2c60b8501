// Package session models the camera side of a QR scan as an explicit state
// machine, so the capture resource is released on every exit path and only
// one detection per session ever leads to navigation.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/museetour/internal/i18n"
	"github.com/lehigh-university-libraries/museetour/internal/navigation"
	"github.com/lehigh-university-libraries/museetour/internal/scan"
)

// State is a step of the camera lifecycle
type State string

const (
	StateRequesting State = "requesting"
	StateGranted    State = "granted"
	StateDenied     State = "denied"
	StateScanning   State = "scanning"
	StateDetected   State = "detected"
	StateClosed     State = "closed"
)

// DenialReason classifies why the camera could not be used
type DenialReason string

const (
	DenialPermission  DenialReason = "denied"
	DenialNoCamera    DenialReason = "no_camera"
	DenialUnsupported DenialReason = "unsupported"
	DenialError       DenialReason = "camera_error"
)

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrAlreadyDetected   = errors.New("artwork already detected")
	ErrClosed            = errors.New("session closed")
)

// ClassifyDenial maps a browser media error name onto a DenialReason
func ClassifyDenial(errName string) DenialReason {
	switch {
	case errName == "NotAllowedError" || errName == "PermissionDeniedError":
		return DenialPermission
	case strings.Contains(errName, "NotFoundError") || errName == "DevicesNotFoundError":
		return DenialNoCamera
	case errName == "unsupported":
		return DenialUnsupported
	default:
		return DenialError
	}
}

// MessageKey returns the i18n key shown for the reason
func (r DenialReason) MessageKey() string {
	switch r {
	case DenialPermission:
		return i18n.MsgCameraDenied
	case DenialNoCamera:
		return i18n.MsgCameraNoCamera
	case DenialUnsupported:
		return i18n.MsgCameraUnsupport
	default:
		return i18n.MsgCameraError
	}
}

// Detection is the result of submitting one decoded payload
type Detection struct {
	Payload    string             `json:"payload"`
	Resolution scan.Resolution    `json:"resolution"`
	Outcome    navigation.Outcome `json:"outcome"`
	Duplicate  bool               `json:"duplicate"`
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	ID         string              `json:"id"`
	State      State               `json:"state"`
	Denial     DenialReason        `json:"denial,omitempty"`
	Capturing  bool                `json:"capturing"`
	Detections int                 `json:"detections"`
	Outcome    *navigation.Outcome `json:"outcome,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Session tracks one visitor's scanner from permission request to detection
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	state       State
	denial      DenialReason
	lastPayload string
	detections  int
	latched     *navigation.Outcome
	capturing   bool
	updatedAt   time.Time

	resolver  *scan.Resolver
	navigator *navigation.Navigator

	hooks     Hooks
	closeOnce sync.Once
}

// Hooks are called outside the session lock
type Hooks struct {
	// ReleaseCapture runs when a granted camera stops being needed: after a
	// detection, a denial or Close. It runs once per grant.
	ReleaseCapture func()
	// Closed runs exactly once when the session is closed
	Closed func()
}

// New starts a session in the requesting state
func New(id string, resolver *scan.Resolver, navigator *navigation.Navigator, hooks Hooks) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		state:     StateRequesting,
		updatedAt: now,
		resolver:  resolver,
		navigator: navigator,
		hooks:     hooks,
	}
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the session's observable state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:         s.ID,
		State:      s.state,
		Denial:     s.denial,
		Capturing:  s.capturing,
		Detections: s.detections,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.updatedAt,
	}
	if s.latched != nil {
		o := *s.latched
		snap.Outcome = &o
	}
	return snap
}

// LastActivity is when the session last changed state
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// transition moves from one of the allowed states to next; callers hold mu
func (s *Session) transition(next State, from ...State) error {
	if s.state == StateClosed {
		return ErrClosed
	}
	for _, f := range from {
		if s.state == f {
			slog.Debug("Scan session transition", "session_id", s.ID, "from", s.state, "to", next)
			s.state = next
			s.updatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
}

// stopCapture marks the camera as released and returns the hook to run
// once the lock is dropped; callers hold mu
func (s *Session) stopCapture() func() {
	if !s.capturing {
		return nil
	}
	s.capturing = false
	slog.Debug("Released camera", "session_id", s.ID, "state", s.state)
	return s.hooks.ReleaseCapture
}

func run(hook func()) {
	if hook != nil {
		hook()
	}
}

// Grant records that the camera permission was granted and the capture
// resource is held
func (s *Session) Grant() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StateGranted, StateRequesting); err != nil {
		return err
	}
	s.capturing = true
	return nil
}

// Deny records a failed camera request, classified from the browser error name
func (s *Session) Deny(errName string) (DenialReason, error) {
	s.mu.Lock()
	reason := ClassifyDenial(errName)
	if err := s.transition(StateDenied, StateRequesting, StateGranted, StateScanning); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.denial = reason
	release := s.stopCapture()
	s.mu.Unlock()

	run(release)
	return reason, nil
}

// Start begins scanning once permission is granted
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(StateScanning, StateGranted)
}

// Retry goes back to requesting the camera after a denial, clearing the
// duplicate-payload memory
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StateRequesting, StateDenied); err != nil {
		return err
	}
	s.denial = ""
	s.lastPayload = ""
	return nil
}

// Detect resolves a decoded payload. The first outcome that navigates latches
// the session into the detected state and releases the camera; later calls
// return that outcome with ErrAlreadyDetected. A payload identical to the
// previous one is ignored.
func (s *Session) Detect(payload string) (Detection, error) {
	s.mu.Lock()
	d, release, err := s.detect(payload)
	s.mu.Unlock()

	run(release)
	return d, err
}

func (s *Session) detect(payload string) (Detection, func(), error) {
	switch s.state {
	case StateClosed:
		return Detection{}, nil, ErrClosed
	case StateDetected:
		return Detection{Payload: payload, Outcome: *s.latched, Duplicate: true}, nil, ErrAlreadyDetected
	case StateScanning:
	default:
		return Detection{}, nil, fmt.Errorf("%w: detect while %s", ErrInvalidTransition, s.state)
	}

	if payload == s.lastPayload && payload != "" {
		return Detection{Payload: payload, Duplicate: true, Outcome: navigation.Outcome{Action: navigation.ActionStay}}, nil, nil
	}
	s.lastPayload = payload
	s.detections++
	s.updatedAt = time.Now()

	res := s.resolver.Resolve(payload)
	outcome := s.navigator.Navigate(res)
	d := Detection{Payload: payload, Resolution: res, Outcome: outcome}

	if !outcome.Navigates() {
		slog.Debug("Scan rejected", "session_id", s.ID, "rejection", res.Rejection.String(), "retry", outcome.Retry)
		return d, nil, nil
	}
	if err := s.transition(StateDetected, StateScanning); err != nil {
		return Detection{}, nil, err
	}
	s.latched = &outcome
	slog.Info("Artwork detected", "session_id", s.ID, "artwork_id", outcome.ArtworkID, "path", outcome.Path)
	return d, s.stopCapture(), nil
}

// Close ends the session, releasing the camera if it is still held. It is
// safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state != StateClosed {
		slog.Debug("Scan session closed", "session_id", s.ID, "from", s.state)
		s.state = StateClosed
		s.updatedAt = time.Now()
	}
	release := s.stopCapture()
	s.mu.Unlock()

	run(release)
	s.closeOnce.Do(func() {
		run(s.hooks.Closed)
	})
}
