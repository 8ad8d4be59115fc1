package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validSettings() DeviceSettings {
	return DeviceSettings{
		DeviceName:   "Bell Controller",
		UniqueURL:    "bellcontroller",
		RingDuration: 2 * time.Second,
	}
}

func TestDeviceSettings_Validate_OK(t *testing.T) {
	s := validSettings()
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() returned error: %v", err)
	}
}

func TestDeviceSettings_Validate_DeviceName(t *testing.T) {
	s := validSettings()
	s.DeviceName = ""
	assertInvalidRequest(t, s.Validate())

	s.DeviceName = strings.Repeat("a", MaxDeviceNameLength+1)
	assertInvalidRequest(t, s.Validate())
}

func TestDeviceSettings_Validate_UniqueURL(t *testing.T) {
	s := validSettings()

	for _, url := range []string{"", "my bell", "bell.local", "ベル", "bell/1"} {
		s.UniqueURL = url
		assertInvalidRequest(t, s.Validate())
	}

	for _, url := range []string{"bell-1", "bell_1", "BELL01"} {
		s.UniqueURL = url
		if err := s.Validate(); err != nil {
			t.Errorf("Validate() with UniqueURL=%q returned error: %v", url, err)
		}
	}
}

func TestDeviceSettings_Validate_RingDuration(t *testing.T) {
	s := validSettings()

	s.RingDuration = 0
	assertInvalidRequest(t, s.Validate())

	s.RingDuration = -1 * time.Second
	assertInvalidRequest(t, s.Validate())

	s.RingDuration = MaxRingDuration + time.Second
	assertInvalidRequest(t, s.Validate())

	s.RingDuration = MaxRingDuration
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() with max duration returned error: %v", err)
	}
}

func assertInvalidRequest(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Validate() should return error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error should be *APIError, got %T", err)
	}
	if apiErr.Code != ErrCodeInvalidRequest {
		t.Errorf("error code = %q, want %q", apiErr.Code, ErrCodeInvalidRequest)
	}
}
