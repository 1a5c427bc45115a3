package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	ps "github.com/mitchellh/go-ps"

	"github.com/prescripto/prescripto/internal/constants"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	userConfigDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { userConfigDirFunc = old })
	return dir
}

func withProcess(t *testing.T, exe string) {
	t.Helper()
	old := findProcessFunc
	findProcessFunc = func(pid int) (ps.Process, error) {
		if exe == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: exe}, nil
	}
	t.Cleanup(func() { findProcessFunc = old })
}

func TestTrayConfigDir(t *testing.T) {
	base := withConfigDir(t)

	want := filepath.Join(base, constants.TrayAppIdentifier)
	dir, err := TrayConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != want {
		t.Errorf("expected %s, got %s", want, dir)
	}

	if err := os.MkdirAll(want, 0755); err != nil {
		t.Fatal(err)
	}
	custom := "/custom/prescripto/dir"
	settings := fmt.Sprintf(`{"settings": {"lockfile_dir": %q}}`, custom)
	if err := os.WriteFile(filepath.Join(want, "settings.json"), []byte(settings), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err = TrayConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != custom {
		t.Errorf("expected %s, got %s", custom, dir)
	}
}

func TestReadLockfile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		exe     string
		wantErr bool
	}{
		{"valid", "8080|123|s3cret", "prescripto-tray", false},
		{"missing parts", "8080|123", "prescripto-tray", true},
		{"bad port", "abc|123|s3cret", "prescripto-tray", true},
		{"port out of range", "70000|123|s3cret", "prescripto-tray", true},
		{"bad pid", "8080|xyz|s3cret", "prescripto-tray", true},
		{"empty secret", "8080|123| ", "prescripto-tray", true},
		{"no process", "8080|123|s3cret", "", true},
		{"wrong process", "8080|123|s3cret", "bash", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withProcess(t, tt.exe)
			path := filepath.Join(t.TempDir(), constants.NotifierLockfileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			port, secret, err := readLockfile(path)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if port != "8080" || secret != "s3cret" {
				t.Errorf("unexpected port=%s secret=%s", port, secret)
			}
		})
	}
}

func TestReadLockfileMissing(t *testing.T) {
	_, _, err := readLockfile(filepath.Join(t.TempDir(), "nope.lock"))
	if !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("expected ErrTrayNotRunning, got %v", err)
	}
}

func TestCheckLockfile(t *testing.T) {
	if err := CheckLockfile(t.TempDir()); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("expected ErrTrayNotRunning for an empty dir, got %v", err)
	}
}

func TestNotify(t *testing.T) {
	var got WebhookPayload
	var gotSecret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get(constants.TraySecretHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	base := withConfigDir(t)
	withProcess(t, "prescripto-tray")

	trayDir := filepath.Join(base, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	lock := fmt.Sprintf("%s|42|topsecret", u.Port())
	if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(lock), 0644); err != nil {
		t.Fatal(err)
	}

	n := New(true)
	if err := n.Notify(context.Background(), LevelSuccess, "Appointment booked successfully"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if gotSecret != "topsecret" {
		t.Errorf("expected secret header, got %q", gotSecret)
	}
	if got.Text != "Appointment booked successfully" || got.Level != LevelSuccess {
		t.Errorf("unexpected payload %+v", got)
	}
	if got.DurationMs != constants.NotificationDurationMs {
		t.Errorf("expected duration %d, got %d", constants.NotificationDurationMs, got.DurationMs)
	}
}

func TestNotifyDisabled(t *testing.T) {
	withConfigDir(t)
	if err := New(false).Notify(context.Background(), LevelInfo, "hi"); err != nil {
		t.Errorf("expected no-op when disabled, got %v", err)
	}
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "bad secret")
	}))
	defer srv.Close()
	u, _ := url.Parse(srv.URL)

	err := New(true).send(context.Background(), u.Port(), "x", WebhookPayload{Text: "t"})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
