package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/polzovatel/uitrace/internal/config"
)

// Session owns the playwright lifecycle and a single page. With
// persistent_context enabled the browser profile (cookies, local storage)
// survives across runs, which keeps logins alive.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func NewSession(cfg *config.Config) (*Session, error) {
	if err := ensureDeps(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	s := &Session{pw: pw}
	if cfg.PersistentContext {
		if err := s.launchPersistent(cfg); err != nil {
			_ = pw.Stop()
			return nil, err
		}
	} else {
		if err := s.launch(cfg); err != nil {
			_ = pw.Stop()
			return nil, err
		}
	}

	s.page.SetDefaultTimeout(cfg.ActionTimeoutMs)
	s.page.SetDefaultNavigationTimeout(cfg.NavTimeoutMs)
	return s, nil
}

func (s *Session) launchPersistent(cfg *config.Config) error {
	context, err := s.pw.Chromium.LaunchPersistentContext(cfg.PersistentContextDir,
		playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(cfg.Headless),
			SlowMo:   playwright.Float(cfg.SlowMoMs),
			Args: []string{
				"--disable-dev-shm-usage",
				"--no-sandbox",
			},
		})
	if err != nil {
		return fmt.Errorf("launch persistent context: %w", err)
	}
	s.context = context

	pages := context.Pages()
	if len(pages) > 0 {
		s.page = pages[0]
		return nil
	}
	page, err := context.NewPage()
	if err != nil {
		_ = context.Close()
		return fmt.Errorf("new page: %w", err)
	}
	s.page = page
	return nil
}

func (s *Session) launch(cfg *config.Config) error {
	browser, err := s.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		SlowMo:   playwright.Float(cfg.SlowMoMs),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return fmt.Errorf("launch chromium: %w", err)
	}

	opts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
	}
	if path := strings.TrimSpace(cfg.StorageState); path != "" {
		// A saved storage state restores cookies from a previous login.
		if _, err := os.Stat(path); err == nil {
			opts.StorageStatePath = playwright.String(path)
		}
	}
	context, err := browser.NewContext(opts)
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("new context: %w", err)
	}
	page, err := context.NewPage()
	if err != nil {
		_ = context.Close()
		_ = browser.Close()
		return fmt.Errorf("new page: %w", err)
	}

	s.browser = browser
	s.context = context
	s.page = page
	return nil
}

func (s *Session) Page() playwright.Page {
	return s.page
}

// SaveState writes the context's cookies and local storage to path so a
// later run can restore the logged in session.
func (s *Session) SaveState(path string) error {
	state, err := s.context.StorageState()
	if err != nil {
		return fmt.Errorf("playwright: %w", err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.context != nil {
		_ = s.context.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.pw != nil {
		return s.pw.Stop()
	}
	return nil
}

func ensureDeps() error {
	// Browsers usually preinstalled in this workspace. Hook for future checks.
	return nil
}
