package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lehigh-university-libraries/museetour/internal/navigation"
	"github.com/lehigh-university-libraries/museetour/internal/scan"
)

type fakeCatalog map[string]string

func (f fakeCatalog) LookupRef(ref string) (string, bool) {
	id, ok := f[ref]
	return id, ok
}

type hookCounts struct {
	captures int32
	closes   int32
}

func newTestSession(t *testing.T, counts *hookCounts) *Session {
	t.Helper()
	resolver := scan.NewResolver([]string{"museum.example"})
	nav := navigation.New(fakeCatalog{"mali-empire": "mali-empire", "bronze-ife": "bronze-ife"})
	return New("test-session", resolver, nav, Hooks{
		ReleaseCapture: func() { atomic.AddInt32(&counts.captures, 1) },
		Closed:         func() { atomic.AddInt32(&counts.closes, 1) },
	})
}

func scanning(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Grant(); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func TestClassifyDenial(t *testing.T) {
	tests := map[string]DenialReason{
		"NotAllowedError":       DenialPermission,
		"PermissionDeniedError": DenialPermission,
		"NotFoundError":         DenialNoCamera,
		"DevicesNotFoundError":  DenialNoCamera,
		"unsupported":           DenialUnsupported,
		"NotReadableError":      DenialError,
		"":                      DenialError,
	}
	for name, expected := range tests {
		if got := ClassifyDenial(name); got != expected {
			t.Errorf("ClassifyDenial(%q) = %s, expected %s", name, got, expected)
		}
	}
}

func TestDetectLatchesFirstNavigation(t *testing.T) {
	var counts hookCounts
	s := newTestSession(t, &counts)
	scanning(t, s)

	d, err := s.Detect("https://museum.example/oeuvres/mali-empire")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if d.Outcome.Path != "/oeuvres/mali-empire" || !d.Outcome.Navigates() {
		t.Errorf("Unexpected outcome %+v", d.Outcome)
	}
	if s.State() != StateDetected {
		t.Errorf("Expected detected state, got %s", s.State())
	}
	if atomic.LoadInt32(&counts.captures) != 1 || s.Snapshot().Capturing {
		t.Error("Expected the camera to be released on detection")
	}
	if atomic.LoadInt32(&counts.closes) != 0 {
		t.Error("Detection should not close the session")
	}

	again, err := s.Detect("bronze-ife")
	if !errors.Is(err, ErrAlreadyDetected) {
		t.Fatalf("Expected ErrAlreadyDetected, got %v", err)
	}
	if !again.Duplicate || again.Outcome.ArtworkID != "mali-empire" {
		t.Errorf("Expected latched outcome, got %+v", again)
	}

	snap := s.Snapshot()
	if snap.Outcome == nil || snap.Outcome.ArtworkID != "mali-empire" || snap.Detections != 1 {
		t.Errorf("Unexpected snapshot %+v", snap)
	}

	s.Close()
	if c := atomic.LoadInt32(&counts.captures); c != 1 {
		t.Errorf("Close after detection released the camera again (%d releases)", c)
	}
	if c := atomic.LoadInt32(&counts.closes); c != 1 {
		t.Errorf("Expected one close, got %d", c)
	}
}

func TestDetectRejectionsKeepScanning(t *testing.T) {
	var counts hookCounts
	s := newTestSession(t, &counts)
	scanning(t, s)

	tests := []struct {
		payload string
		retry   bool
	}{
		{"", true},
		{"https://evil.example/oeuvres/mali-empire", false},
		{"https://museum.example/contact", false},
		{"http://[broken", true},
	}
	for _, tt := range tests {
		d, err := s.Detect(tt.payload)
		if err != nil {
			t.Fatalf("Detect(%q) failed: %v", tt.payload, err)
		}
		if d.Outcome.Navigates() || d.Outcome.Retry != tt.retry {
			t.Errorf("Detect(%q) = %+v", tt.payload, d.Outcome)
		}
	}
	if s.State() != StateScanning {
		t.Errorf("Expected scanning state, got %s", s.State())
	}
	if !s.Snapshot().Capturing || atomic.LoadInt32(&counts.captures) != 0 {
		t.Error("Rejected scans should keep the camera")
	}
}

func TestDetectIgnoresRepeatedPayload(t *testing.T) {
	var counts hookCounts
	s := newTestSession(t, &counts)
	scanning(t, s)

	payload := "https://evil.example/oeuvres/x"
	first, _ := s.Detect(payload)
	if first.Duplicate {
		t.Fatal("First detection should not be a duplicate")
	}
	second, err := s.Detect(payload)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !second.Duplicate || second.Outcome.Navigates() {
		t.Errorf("Expected ignored duplicate, got %+v", second)
	}
	if got := s.Snapshot().Detections; got != 1 {
		t.Errorf("Expected 1 counted detection, got %d", got)
	}
}

func TestTransitions(t *testing.T) {
	var counts hookCounts
	s := newTestSession(t, &counts)

	if _, err := s.Detect("mali-empire"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Detect before scanning should fail, got %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Start before grant should fail, got %v", err)
	}

	reason, err := s.Deny("NotAllowedError")
	if err != nil || reason != DenialPermission {
		t.Fatalf("Deny = %s, %v", reason, err)
	}
	if got := s.Snapshot().Denial; got != DenialPermission {
		t.Errorf("Expected denial in snapshot, got %q", got)
	}

	if err := s.Retry(); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if s.State() != StateRequesting || s.Snapshot().Denial != "" {
		t.Errorf("Retry should reset to requesting, got %+v", s.Snapshot())
	}
	if err := s.Retry(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Retry without denial should fail, got %v", err)
	}

	scanning(t, s)
	if _, err := s.Deny("NotReadableError"); err != nil {
		t.Errorf("Deny while scanning failed: %v", err)
	}
	if atomic.LoadInt32(&counts.captures) != 1 || s.Snapshot().Capturing {
		t.Error("Expected denial while scanning to release the camera")
	}
}

func TestCloseReleasesOnce(t *testing.T) {
	var counts hookCounts
	s := newTestSession(t, &counts)
	scanning(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&counts.captures); got != 1 {
		t.Errorf("Expected camera release to run once, ran %d times", got)
	}
	if got := atomic.LoadInt32(&counts.closes); got != 1 {
		t.Errorf("Expected close hook to run once, ran %d times", got)
	}
	if _, err := s.Detect("mali-empire"); !errors.Is(err, ErrClosed) {
		t.Errorf("Detect after close should fail with ErrClosed, got %v", err)
	}
	if err := s.Grant(); !errors.Is(err, ErrClosed) {
		t.Errorf("Grant after close should fail with ErrClosed, got %v", err)
	}
}

func TestCloseAfterDenial(t *testing.T) {
	var counts hookCounts
	s := newTestSession(t, &counts)
	if _, err := s.Deny("NotFoundError"); err != nil {
		t.Fatal(err)
	}
	s.Close()
	if atomic.LoadInt32(&counts.closes) != 1 {
		t.Error("Expected close hook after denial")
	}
	if atomic.LoadInt32(&counts.captures) != 0 {
		t.Error("No camera was granted, nothing to release")
	}
}
