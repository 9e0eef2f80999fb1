package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LoginForm holds the selectors of the vendor login page.
type LoginForm struct {
	Path         string `yaml:"path"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Submit       string `yaml:"submit"`
	SuccessURL   string `yaml:"success_url"`
	ErrorMessage string `yaml:"error_message"`
}

// Credentials identify the user a task logs in as.
type Credentials struct {
	Username string
	Password string
}

// JoinURL joins a base URL and a path with exactly one slash between them.
func JoinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Login signs in and waits until the browser reaches a URL containing
// form.SuccessURL.
func Login(ctx context.Context, page Page, baseURL string, creds Credentials, form LoginForm, timeouts Timeouts) error {
	loginURL := JoinURL(baseURL, form.Path)
	slog.Info("Logging in", "url", loginURL, "username", creds.Username)

	if err := page.Goto(ctx, loginURL); err != nil {
		return err
	}
	if err := page.WaitVisible(ctx, form.Username, timeouts.Default); err != nil {
		return fmt.Errorf("login form did not appear: %w", err)
	}
	if err := page.Fill(ctx, form.Username, creds.Username); err != nil {
		return err
	}
	if err := page.Fill(ctx, form.Password, creds.Password); err != nil {
		return err
	}
	if err := page.Click(ctx, form.Submit); err != nil {
		return err
	}

	if err := page.WaitURL(ctx, form.SuccessURL, timeouts.Default); err != nil {
		if form.ErrorMessage != "" {
			if msg, textErr := page.Text(ctx, form.ErrorMessage); textErr == nil && strings.TrimSpace(msg) != "" {
				return fmt.Errorf("login rejected: %s", strings.TrimSpace(msg))
			}
		}
		return fmt.Errorf("login did not complete: %w", err)
	}

	slog.Info("Logged in", "url", page.URL())
	return nil
}
