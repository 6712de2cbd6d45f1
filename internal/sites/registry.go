package sites

import (
	"time"

	"github.com/awaizkhanmd/Automation/internal/automation"
	"github.com/awaizkhanmd/Automation/internal/browser"
	"github.com/pkg/errors"
	"github.com/playwright-community/playwright-go"
)

var specs = map[string]spec{
	linkedinSpec.name: linkedinSpec,
	indeedSpec.name:   indeedSpec,
	diceSpec.name:     diceSpec,
}

// Supported reports whether a site has an automator. Postings from
// unsupported sites are planned around, never attempted.
func Supported(site string) bool {
	_, ok := specs[site]
	return ok
}

func SupportedSites() []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	return names
}

// New binds a site's selector spec to a live page.
func New(site string, page playwright.Page, shots *browser.Screenshotter, navTimeout time.Duration) (automation.Automator, error) {
	siteSpec, ok := specs[site]
	if !ok {
		return nil, errors.Errorf("unsupported site: %s", site)
	}
	return &automator{
		spec:       siteSpec,
		page:       page,
		shots:      shots,
		navTimeout: navTimeout,
	}, nil
}
