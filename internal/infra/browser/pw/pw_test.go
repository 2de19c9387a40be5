package pw

import (
	"testing"

	"github.com/chiru781/cursior/internal/domain"
)

func TestLaunchOptions(t *testing.T) {
	engine, launch, err := LaunchOptions(Options{Browser: "Edge", Headless: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine != "chromium" || launch.Channel == nil || *launch.Channel != "msedge" {
		t.Fatalf("expected msedge channel on chromium, got %s %v", engine, launch.Channel)
	}
	if launch.Headless == nil || !*launch.Headless {
		t.Fatalf("expected headless")
	}

	engine, launch, err = LaunchOptions(Options{Browser: "firefox"})
	if err != nil || engine != "firefox" || launch.Channel != nil {
		t.Fatalf("unexpected firefox launch %s %v %v", engine, launch.Channel, err)
	}

	if _, _, err := LaunchOptions(Options{Browser: "chrome"}); err == nil {
		t.Fatalf("expected chrome to be rejected")
	}
}

func TestSelectorPrefixesEngine(t *testing.T) {
	if got := selector(domain.Name("email")); got != `css=[name="email"]` {
		t.Fatalf("unexpected %s", got)
	}
	if got := selector(domain.XPath("//button")); got != "xpath=//button" {
		t.Fatalf("unexpected %s", got)
	}
}
