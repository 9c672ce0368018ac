// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// MockService is a configurable test double for [services.Service].
// Zero-value fields fall back to small fixtures; error fields inject failures.
type MockService struct {
	Profile    *services.UserProfile
	ProfileErr error
	RawProfile []byte
	RawPage    []byte
	RawPageErr error
	Playlists  []services.Playlist
	ListErr    error
	Exports    map[string]*services.PlaylistExport
	ExportErrs map[string]error
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockService) GetProfile(ctx context.Context) (*services.UserProfile, error) {
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	if m.Profile != nil {
		return m.Profile, nil
	}
	return &services.UserProfile{ID: "mock-user", DisplayName: "Mock User"}, nil
}

func (m *MockService) GetProfileRaw(ctx context.Context) ([]byte, error) {
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	if m.RawProfile != nil {
		return m.RawProfile, nil
	}
	return []byte(`{"id":"mock-user"}`), nil
}

func (m *MockService) GetPlaylistPageRaw(ctx context.Context, offset, limit int) ([]byte, error) {
	if m.RawPageErr != nil {
		return nil, m.RawPageErr
	}
	if m.RawPage != nil {
		return m.RawPage, nil
	}
	return []byte(`{"items":[],"next":null}`), nil
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]services.Playlist, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Playlists, nil
}

func (m *MockService) ExportPlaylist(ctx context.Context, playlistID string) (*services.PlaylistExport, error) {
	if err, ok := m.ExportErrs[playlistID]; ok {
		return nil, err
	}
	if export, ok := m.Exports[playlistID]; ok {
		return export, nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
