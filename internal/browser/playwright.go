package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Options configures the browser launched for a task run.
type Options struct {
	Headless bool          `yaml:"headless"`
	SlowMo   time.Duration `yaml:"slow_mo"`
	Install  bool          `yaml:"install"`
	Width    int           `yaml:"width"`
	Height   int           `yaml:"height"`
	Timeouts Timeouts      `yaml:"timeouts"`
}

// Session owns one Playwright driver, browser, context and page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    *PlaywrightPage
}

// Launch starts a Chromium browser and opens a single page.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Install {
		slog.Info("Installing Playwright browsers")
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	width, height := opts.Width, opts.Height
	if width == 0 || height == 0 {
		width, height = 1600, 1000
	}
	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: width, Height: height},
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	timeouts := opts.Timeouts
	if timeouts.Default == 0 {
		timeouts = DefaultTimeouts()
	}
	page.SetDefaultTimeout(float64(timeouts.Default.Milliseconds()))

	slog.Info("Browser launched", "headless", opts.Headless, "viewport", fmt.Sprintf("%dx%d", width, height))

	return &Session{
		pw:      pw,
		browser: browser,
		bctx:    bctx,
		page:    &PlaywrightPage{page: page},
	}, nil
}

// Page returns the session's page.
func (s *Session) Page() *PlaywrightPage {
	return s.page
}

// Close tears the session down. Errors are logged; only the driver stop error
// is returned.
func (s *Session) Close() error {
	if s.bctx != nil {
		if err := s.bctx.Close(); err != nil {
			slog.Warn("Failed to close browser context", "error", err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			slog.Warn("Failed to close browser", "error", err)
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	return nil
}

// PlaywrightPage implements Page on top of a playwright.Page.
type PlaywrightPage struct {
	page playwright.Page
}

var _ Page = (*PlaywrightPage)(nil)

func (p *PlaywrightPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) URL() string {
	return p.page.URL()
}

func (p *PlaywrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Content()
}

func (p *PlaywrightPage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Click(); err != nil {
		return fmt.Errorf("click %s: %w", selector, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Fill(value); err != nil {
		return fmt.Errorf("fill %s: %w", selector, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) Clear(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// File inputs reject Fill, so reset the value directly.
	if _, err := p.page.Locator(selector).First().Evaluate(`el => { el.value = "" }`, nil); err != nil {
		return fmt.Errorf("clear %s: %w", selector, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) Press(ctx context.Context, selector, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if selector == "" {
		return p.page.Keyboard().Press(key)
	}
	if err := p.page.Locator(selector).First().Press(key); err != nil {
		return fmt.Errorf("press %s on %s: %w", key, selector, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) Options(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	texts, err := p.page.Locator(selector).First().Locator("option").AllInnerTexts()
	if err != nil {
		return nil, fmt.Errorf("read options of %s: %w", selector, wrapTimeout(err))
	}
	return texts, nil
}

func (p *PlaywrightPage) SelectedLabel(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := p.page.Locator(selector).First().Evaluate(
		`el => el.selectedIndex >= 0 ? el.options[el.selectedIndex].text : ""`, nil)
	if err != nil {
		return "", fmt.Errorf("read selection of %s: %w", selector, wrapTimeout(err))
	}
	s, _ := v.(string)
	return s, nil
}

func (p *PlaywrightPage) SelectLabel(ctx context.Context, selector, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Locator(selector).First().SelectOption(playwright.SelectOptionValues{
		Labels: playwright.StringSlice(label),
	}); err != nil {
		return fmt.Errorf("select %q in %s: %w", label, selector, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) SetChecked(ctx context.Context, selector string, checked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().SetChecked(checked); err != nil {
		return fmt.Errorf("set checked=%t on %s: %w", checked, selector, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) IsChecked(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.page.Locator(selector).First().IsChecked()
}

func (p *PlaywrightPage) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.page.Locator(selector).Count()
}

func (p *PlaywrightPage) Text(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Locator(selector).First().InnerText()
}

func (p *PlaywrightPage) Value(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Locator(selector).First().InputValue()
}

func (p *PlaywrightPage) SetInputFiles(ctx context.Context, selector, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().SetInputFiles(path); err != nil {
		return fmt.Errorf("set file %s on %s: %w", path, selector, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) ScrollToTop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Evaluate(`() => window.scrollTo(0, 0)`)
	return err
}

func (p *PlaywrightPage) ScrollIntoView(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().ScrollIntoViewIfNeeded(); err != nil {
		return fmt.Errorf("scroll to %s: %w", selector, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) Highlight(ctx context.Context, selector, color string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Locator(selector).First().Evaluate(
		`(el, color) => { el.style.border = "3px solid " + color }`, color)
	return err
}

func (p *PlaywrightPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return p.waitFor(ctx, selector, playwright.WaitForSelectorStateVisible, timeout)
}

func (p *PlaywrightPage) WaitAttached(ctx context.Context, selector string, timeout time.Duration) error {
	return p.waitFor(ctx, selector, playwright.WaitForSelectorStateAttached, timeout)
}

func (p *PlaywrightPage) WaitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	return p.waitFor(ctx, selector, playwright.WaitForSelectorStateHidden, timeout)
}

func (p *PlaywrightPage) waitFor(ctx context.Context, selector string, state *playwright.WaitForSelectorState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("wait for %s to be %s: %w", selector, *state, wrapTimeout(err))
	}
	return nil
}

func (p *PlaywrightPage) WaitURL(ctx context.Context, fragment string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.WaitForURL("**"+fragment+"**", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("wait for url containing %q: %w", fragment, wrapTimeout(err))
	}
	return nil
}

func wrapTimeout(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
