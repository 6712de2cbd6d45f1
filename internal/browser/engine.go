package browser

import (
	"github.com/pkg/errors"
	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
)

// Engine owns the playwright runtime and the single browser process.
// Each application attempt gets its own isolated context; contexts are
// never shared between attempts.
type Engine struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewEngine(headless bool) (*Engine, error) {

	pw, err := playwright.Run()
	if err != nil {
		return nil, errors.Wrap(err, "failed to start playwright")
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errors.Wrap(err, "failed to launch browser")
	}

	log.Infof("browser engine started (headless: %v)", headless)
	return &Engine{pw: pw, browser: browser}, nil
}

// Healthy reports whether the browser process is still alive. Losing the
// engine is fatal to the session, not to a single attempt.
func (e *Engine) Healthy() bool {
	return e.browser.IsConnected()
}

// NewContext opens an isolated browser context, optionally restoring
// cookies from the given file for authenticated site sessions.
func (e *Engine) NewContext(cookieFile string) (playwright.BrowserContext, error) {

	context, err := e.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		Viewport:  &playwright.Size{Width: 1366, Height: 768},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create browser context")
	}

	if cookieFile != "" {
		cookies, err := LoadCookies(cookieFile)
		if err != nil {
			log.Warnf("failed to load cookies from %v: %v", cookieFile, err)
		} else if err = context.AddCookies(cookies); err != nil {
			log.Warnf("failed to restore cookies: %v", err)
		}
	}

	return context, nil
}

func (e *Engine) Close() error {
	if err := e.browser.Close(); err != nil {
		return err
	}
	return e.pw.Stop()
}
