package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
)

// Screenshotter writes attempt audit screenshots under a per-session
// artifact directory.
type Screenshotter struct {
	outputDir string
}

func NewScreenshotter(artifactDir, sessionID string) (*Screenshotter, error) {
	dir := filepath.Join(artifactDir, sessionID, "screenshots")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Screenshotter{outputDir: dir}, nil
}

// Capture takes a full-page screenshot and returns its path. Screenshot
// failures are logged, never escalated: audit artifacts must not break
// an attempt.
func (s *Screenshotter) Capture(page playwright.Page, name string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		log.Warnf("failed to capture screenshot %v: %v", name, err)
		return ""
	}
	return path
}
