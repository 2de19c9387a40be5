package cdp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/chiru781/cursior/internal/domain"
)

func TestAllocatorOptions(t *testing.T) {
	base := len(chromedp.DefaultExecAllocatorOptions)

	opts := AllocatorOptions(Options{Headless: true, Width: 1280, Height: 720})
	if len(opts) != base+9 {
		t.Fatalf("expected %d options, got %d", base+9, len(opts))
	}

	opts = AllocatorOptions(Options{ExecPath: "/usr/bin/chromium"})
	if len(opts) != base+10 {
		t.Fatalf("expected exec path option, got %d", len(opts))
	}
}

func TestQueryPicksSearchForXPath(t *testing.T) {
	sel, by := query(domain.XPath("//button[text()='Add to Cart']"))
	if sel != "//button[text()='Add to Cart']" || by == nil {
		t.Fatalf("unexpected selector %q", sel)
	}
	sel, _ = query(domain.ID("login-button"))
	if sel != `[id="login-button"]` {
		t.Fatalf("unexpected css selector %q", sel)
	}
}

// Requires a local Chrome; set CURSIOR_CHROME=1 to run.
func TestBrowserAgainstLocalPage(t *testing.T) {
	if os.Getenv("CURSIOR_CHROME") == "" {
		t.Skip("CURSIOR_CHROME not set")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Login</title></head><body>
<input id="email"><select name="country"><option>Peru</option><option>Chile</option></select>
<div class="error-message" style="display:none">hidden</div>
<script>console.log("ready")</script></body></html>`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	b, err := Open(ctx, Options{Headless: true, Width: 1280, Height: 720, PageLoad: 30 * time.Second})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	if err := b.Navigate(ctx, srv.URL); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if title, _ := b.Title(ctx); title != "Login" {
		t.Fatalf("unexpected title %q", title)
	}
	if err := b.Type(ctx, domain.ID("email"), "test@example.com"); err != nil {
		t.Fatalf("type: %v", err)
	}
	if err := b.SelectOption(ctx, domain.Name("country"), "Chile"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if ok, _ := b.Visible(ctx, domain.Class("error-message")); ok {
		t.Fatalf("hidden element reported visible")
	}
	var v string
	if err := b.Eval(ctx, `document.getElementById("email").value`, &v); err != nil || v != "test@example.com" {
		t.Fatalf("eval: %q %v", v, err)
	}
	logs, _ := b.ConsoleLogs(ctx)
	if len(logs) == 0 {
		t.Fatalf("expected console entry")
	}
}
