package browser_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/browser/browsertest"
)

func testForm() browser.LoginForm {
	return browser.LoginForm{
		Path:         "/login",
		Username:     "#user",
		Password:     "#pass",
		Submit:       "#go",
		SuccessURL:   "/dashboard",
		ErrorMessage: ".alert",
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://crm.example.com", "/login", "https://crm.example.com/login"},
		{"https://crm.example.com/", "login", "https://crm.example.com/login"},
		{"https://crm.example.com/", "/login", "https://crm.example.com/login"},
		{"https://crm.example.com", "", "https://crm.example.com"},
	}
	for _, tt := range tests {
		if got := browser.JoinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("JoinURL(%q, %q): expected %q, got %q", tt.base, tt.path, tt.want, got)
		}
	}
}

func TestLogin(t *testing.T) {
	page := browsertest.New()
	creds := browser.Credentials{Username: "ann", Password: "secret"}

	err := browser.Login(context.Background(), page, "https://crm.example.com/", creds, testForm(), browser.DefaultTimeouts())
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if page.URL() != "https://crm.example.com/login" {
		t.Errorf("Expected login page, got %s", page.URL())
	}
	if page.Values["#user"] != "ann" || page.Values["#pass"] != "secret" {
		t.Errorf("Unexpected form values %v", page.Values)
	}
	if !page.Called("click", "#go") {
		t.Error("Expected submit click")
	}
	if !page.Called("url", "/dashboard") {
		t.Error("Expected wait for the success URL")
	}
}

func TestLoginRejected(t *testing.T) {
	page := browsertest.New()
	page.Texts[".alert"] = "  Invalid password \n"
	page.FailNext("url", "/dashboard", browser.ErrTimeout)

	err := browser.Login(context.Background(), page, "https://crm.example.com", browser.Credentials{}, testForm(), browser.DefaultTimeouts())
	if err == nil || !strings.Contains(err.Error(), "login rejected: Invalid password") {
		t.Errorf("Expected rejection message, got %v", err)
	}
}

func TestLoginTimeout(t *testing.T) {
	page := browsertest.New()
	page.FailNext("url", "/dashboard", browser.ErrTimeout)

	err := browser.Login(context.Background(), page, "https://crm.example.com", browser.Credentials{}, testForm(), browser.DefaultTimeouts())
	if !errors.Is(err, browser.ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}

func TestLoginFormMissing(t *testing.T) {
	page := browsertest.New()
	page.FailNext("visible", "#user", browser.ErrTimeout)

	err := browser.Login(context.Background(), page, "https://crm.example.com", browser.Credentials{}, testForm(), browser.DefaultTimeouts())
	if err == nil || !strings.Contains(err.Error(), "login form did not appear") {
		t.Errorf("Expected form error, got %v", err)
	}
	if page.Called("fill", "#user") {
		t.Error("Expected no fill when the form is missing")
	}
}

func TestSelectorHelpers(t *testing.T) {
	if got := browser.Nth("tr", 2); got != "tr >> nth=2" {
		t.Errorf("Unexpected Nth %q", got)
	}
	if got := browser.Within("tr >> nth=2", "a.upload"); got != "tr >> nth=2 >> a.upload" {
		t.Errorf("Unexpected Within %q", got)
	}
	if got := browser.RowWithLabel("div.row", "label", "Width"); got != `div.row:has(label:text-is("Width"))` {
		t.Errorf("Unexpected RowWithLabel %q", got)
	}
}
