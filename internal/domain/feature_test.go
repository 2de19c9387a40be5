package domain

import "testing"

func TestFeatureInfoScenarioCountExpandsOutlines(t *testing.T) {
	f := FeatureInfo{
		Path: "login.feature",
		Scenarios: []ScenarioInfo{
			{Name: "Successful login"},
			{Name: "Invalid credentials", Examples: 3},
			{Name: "Remember me"},
		},
	}
	if got := f.ScenarioCount(); got != 5 {
		t.Fatalf("ScenarioCount = %d, want 5", got)
	}
	if got := f.Title(); got != "login.feature" {
		t.Fatalf("Title = %q, want the path for an unnamed feature", got)
	}

	f.Name = "User Login"
	if got := f.Title(); got != "User Login" {
		t.Fatalf("Title = %q", got)
	}
}
