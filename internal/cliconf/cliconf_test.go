// SPDX-License-Identifier: MPL-2.0

package cliconf

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

// fakeConn answers from a fixed table and records every command it sees.
type fakeConn struct {
	replies map[string]string
	failOn  string
	sent    []string
}

func (f *fakeConn) Send(_ context.Context, command string) (string, error) {
	f.sent = append(f.sent, command)
	if command == f.failOn {
		return "", errors.New("% Invalid input detected")
	}
	return f.replies[command], nil
}

func TestDeviceInfo(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{replies: map[string]string{"show version": "\n  Dummy OS 1.0.0  \n"}}
	info, err := New(conn, nil).DeviceInfo(context.Background())
	if err != nil {
		t.Fatalf("DeviceInfo() returned error: %v", err)
	}
	if info.NetworkOS != NetworkOS {
		t.Errorf("NetworkOS = %q, want %q", info.NetworkOS, NetworkOS)
	}
	if info.Debug != "Dummy OS 1.0.0" {
		t.Errorf("Debug = %q, want trimmed show version output", info.Debug)
	}
}

func TestGetConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source  ConfigSource
		wantCmd string
	}{
		{source: SourceRunning, wantCmd: "show running-config all"},
		{source: SourceStartup, wantCmd: "show startup-config"},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			t.Parallel()

			conn := &fakeConn{replies: map[string]string{tt.wantCmd: "hostname r1"}}
			got, err := New(conn, nil).GetConfig(context.Background(), tt.source)
			if err != nil {
				t.Fatalf("GetConfig(%s) returned error: %v", tt.source, err)
			}
			if got != "hostname r1" {
				t.Errorf("GetConfig(%s) = %q", tt.source, got)
			}
			if !slices.Equal(conn.sent, []string{tt.wantCmd}) {
				t.Errorf("sent = %v, want [%s]", conn.sent, tt.wantCmd)
			}
		})
	}
}

func TestGetConfig_InvalidSource(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	_, err := New(conn, nil).GetConfig(context.Background(), "candidate")
	if !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("GetConfig(candidate) error = %v, want ErrInvalidSource", err)
	}
	if err.Error() != "fetching configuration from candidate is not supported" {
		t.Errorf("Error() = %q", err.Error())
	}
	if len(conn.sent) != 0 {
		t.Errorf("sent = %v, want nothing", conn.sent)
	}
}

func TestEditConfig(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	err := New(conn, nil).EditConfig(context.Background(), []string{"hostname r2", "interface eth0"})
	if err != nil {
		t.Fatalf("EditConfig() returned error: %v", err)
	}
	want := []string{"configure terminal", "hostname r2", "interface eth0", "end"}
	if !slices.Equal(conn.sent, want) {
		t.Errorf("sent = %v, want %v", conn.sent, want)
	}
}

func TestEditConfig_StopsOnFailure(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{failOn: "bogus line"}
	err := New(conn, nil).EditConfig(context.Background(), []string{"hostname r2", "bogus line", "never sent"})
	if err == nil {
		t.Fatal("EditConfig() returned nil error")
	}
	want := []string{"configure terminal", "hostname r2", "bogus line"}
	if !slices.Equal(conn.sent, want) {
		t.Errorf("sent = %v, want %v", conn.sent, want)
	}
}

func TestCapabilitiesJSON(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{replies: map[string]string{"show version": "Dummy OS"}}
	doc, err := New(conn, nil).CapabilitiesJSON(context.Background())
	if err != nil {
		t.Fatalf("CapabilitiesJSON() returned error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(doc), &decoded); err != nil {
		t.Fatalf("capabilities are not valid JSON: %v", err)
	}
	if decoded["network_api"] != "cliconf" {
		t.Errorf("network_api = %v", decoded["network_api"])
	}
	info, _ := decoded["device_info"].(map[string]any)
	if info["network_os"] != NetworkOS {
		t.Errorf("device_info.network_os = %v", info["network_os"])
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{replies: map[string]string{"show clock": "12:00"}}
	got, err := New(conn, nil).Get(context.Background(), "show clock")
	if err != nil || got != "12:00" {
		t.Errorf("Get() = %q, %v", got, err)
	}
}
