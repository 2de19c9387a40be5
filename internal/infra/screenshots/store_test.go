package screenshots

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(dir).WithNow(func() time.Time { return at })

	shot, err := s.Save("failed_step_I click the login button", []byte("png"))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	want := filepath.Join(dir, "failed_step_I_click_the_login_button_20260102_030405.png")
	if shot.Path != want {
		t.Fatalf("expected %s, got %s", want, shot.Path)
	}
	if b, _ := os.ReadFile(want); string(b) != "png" {
		t.Fatalf("unexpected content %q", b)
	}

	again, err := s.Save("failed_step_I click the login button", []byte("png"))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if !strings.HasSuffix(again.Path, "_20260102_030405_2.png") {
		t.Fatalf("expected suffixed name, got %s", again.Path)
	}
}

func TestConcurrentSavesNeverShareAPath(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(dir).WithNow(func() time.Time { return at })

	const n = 16
	var wg sync.WaitGroup
	paths := make([]string, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shot, err := s.Save("failed_scenario_Checkout", []byte{byte(i)})
			paths[i], errs[i] = shot.Path, err
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, p := range paths {
		if errs[i] != nil {
			t.Fatalf("save %d: %v", i, errs[i])
		}
		if seen[p] {
			t.Fatalf("path %s handed out twice", p)
		}
		seen[p] = true
		if b, _ := os.ReadFile(p); len(b) != 1 || b[0] != byte(i) {
			t.Fatalf("%s holds %v, want [%d]", p, b, i)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != n {
		t.Fatalf("expected %d files, got %d", n, len(entries))
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		`I see "Welcome!" message`: "I_see_Welcome_message",
		"  ":                       "screenshot",
		"a/b\\c":                   "a_b_c",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Fatalf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Sanitize(strings.Repeat("x", 300)); len(got) != maxNameLen {
		t.Fatalf("expected truncation to %d, got %d", maxNameLen, len(got))
	}
}
