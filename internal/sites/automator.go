package sites

import (
	"context"
	"strings"
	"time"

	"github.com/awaizkhanmd/Automation/internal/automation"
	"github.com/awaizkhanmd/Automation/internal/browser"
	"github.com/pkg/errors"
	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
)

// spec is the per-site selector map. Primary selectors are tried first,
// fallback selectors once after an element_not_found.
type spec struct {
	name string

	applyButton         string
	applyButtonFallback string
	formContainer       string
	submitButton        string
	uploadInput         string

	// Lowercase fragments of page text that mean a prior application.
	appliedTexts []string
	// Lowercase fragments that confirm a submission went through.
	confirmationTexts []string
	challengeSelector string
}

// automator drives one site through a playwright page. It is selector
// driven; everything site specific lives in the spec.
type automator struct {
	spec  spec
	page  playwright.Page
	shots *browser.Screenshotter

	navTimeout time.Duration
}

var _ automation.Automator = (*automator)(nil)

func (a *automator) Site() string {
	return a.spec.name
}

func (a *automator) Navigate(_ context.Context, url string) error {
	_, err := a.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(a.navTimeout.Milliseconds())),
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			return automation.TimeoutError(err)
		}
		return automation.NetworkError(err)
	}
	return nil
}

func (a *automator) AlreadyApplied(_ context.Context) (bool, error) {
	text, err := a.bodyText()
	if err != nil {
		return false, err
	}
	for _, indicator := range a.spec.appliedTexts {
		if strings.Contains(text, indicator) {
			return true, nil
		}
	}
	return false, nil
}

func (a *automator) DetectChallenge(_ context.Context) (bool, error) {
	if count, err := a.page.Locator(a.spec.challengeSelector).Count(); err == nil && count > 0 {
		return true, nil
	}

	title, _ := a.page.Title()
	for _, marker := range []string{"just a moment", "attention required", "verify you are human"} {
		if strings.Contains(strings.ToLower(title), marker) {
			return true, nil
		}
	}
	return false, nil
}

func (a *automator) DetectForm(_ context.Context, useFallback bool) (automation.Form, error) {

	applySelector := a.spec.applyButton
	if useFallback && a.spec.applyButtonFallback != "" {
		applySelector = a.spec.applyButtonFallback
	}

	apply := a.page.Locator(applySelector).First()
	if count, err := apply.Count(); err != nil || count == 0 {
		return automation.Form{}, automation.ElementNotFound("apply button " + applySelector)
	}
	if err := apply.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(10000)}); err != nil {
		return automation.Form{}, automation.ElementNotFound("apply button not clickable: " + applySelector)
	}

	container := a.page.Locator(a.spec.formContainer).First()
	if _, err := container.Count(); err != nil {
		return automation.Form{}, automation.NetworkError(err)
	}
	if err := container.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(10000),
	}); err != nil {
		return automation.Form{}, automation.ElementNotFound("application form " + a.spec.formContainer)
	}

	return a.readForm(container)
}

// readForm enumerates the visible inputs of the application form and
// classifies each by its name, id, placeholder and label text.
func (a *automator) readForm(container playwright.Locator) (automation.Form, error) {

	inputs, err := container.Locator("input:not([type='hidden']), textarea, select").All()
	if err != nil {
		return automation.Form{}, automation.NetworkError(err)
	}

	form := automation.Form{}
	for _, input := range inputs {
		inputType, _ := input.GetAttribute("type")
		if inputType == "file" {
			form.RequiresUpload = true
			continue
		}

		descriptor := attributeDescriptor(input)
		kind := automation.ClassifyField(descriptor)
		if kind == automation.FieldUnknown {
			log.Debugf("%v: skipping unrecognized field %q", a.spec.name, descriptor)
			continue
		}

		required, _ := input.GetAttribute("required")
		ariaRequired, _ := input.GetAttribute("aria-required")
		selector := fieldSelector(input)
		if selector == "" {
			log.Debugf("%v: field %q has no stable selector, skipping", a.spec.name, descriptor)
			continue
		}
		form.Fields = append(form.Fields, automation.Field{
			Kind:     kind,
			Selector: selector,
			Required: required != "" || ariaRequired == "true",
		})
	}

	if len(form.Fields) == 0 && !form.RequiresUpload {
		return automation.Form{}, automation.ElementNotFound("application form fields")
	}
	return form, nil
}

func (a *automator) FillForm(_ context.Context, form automation.Form, values automation.FormValues) error {
	for _, field := range form.Fields {
		value := values[field.Kind]
		if value == "" {
			continue
		}

		locator := a.page.Locator(field.Selector).First()
		if err := locator.Fill(value, playwright.LocatorFillOptions{Timeout: playwright.Float(5000)}); err != nil {
			if field.Required {
				return automation.ElementNotFound("form field " + field.Selector)
			}
			log.Warnf("%v: failed to fill optional field %v: %v", a.spec.name, field.Kind, err)
		}
		humanPause()
	}
	return nil
}

func (a *automator) UploadResume(_ context.Context, resumePath string) error {
	upload := a.page.Locator(a.spec.uploadInput).First()
	if count, err := upload.Count(); err != nil || count == 0 {
		return automation.ElementNotFound("upload input " + a.spec.uploadInput)
	}
	if err := upload.SetInputFiles(resumePath); err != nil {
		return automation.NetworkError(errors.Wrap(err, "resume upload failed"))
	}
	return nil
}

func (a *automator) Submit(_ context.Context, _ automation.Form) error {
	submit := a.page.Locator(a.spec.submitButton).First()
	if count, err := submit.Count(); err != nil || count == 0 {
		return automation.ElementNotFound("submit button " + a.spec.submitButton)
	}
	if err := submit.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(10000)}); err != nil {
		return automation.NetworkError(errors.Wrap(err, "submit click failed"))
	}
	return nil
}

// ConfirmSubmission polls for an explicit confirmation signal until the
// context expires. Absence of errors is never treated as success.
func (a *automator) ConfirmSubmission(ctx context.Context) (string, error) {

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		text, err := a.bodyText()
		if err == nil {
			for _, indicator := range a.spec.confirmationTexts {
				if strings.Contains(text, indicator) {
					return indicator, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return "", automation.Unverified(errors.New("no confirmation signal observed"))
		case <-ticker.C:
		}
	}
}

func (a *automator) Screenshot(name string) string {
	return a.shots.Capture(a.page, a.spec.name+"_"+name)
}

func (a *automator) CurrentURL() string {
	return a.page.URL()
}

func (a *automator) PageTitle() string {
	title, _ := a.page.Title()
	return title
}

func (a *automator) bodyText() (string, error) {
	text, err := a.page.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		return "", automation.NetworkError(err)
	}
	return strings.ToLower(text), nil
}

// attributeDescriptor joins the attributes a field is recognized by.
func attributeDescriptor(input playwright.Locator) string {
	var parts []string
	for _, attr := range []string{"name", "id", "placeholder", "aria-label", "autocomplete"} {
		if value, err := input.GetAttribute(attr); err == nil && value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, " ")
}

// fieldSelector prefers a stable id or name based selector for refilling
// the field later. Fields with neither are not worth the flakiness.
func fieldSelector(input playwright.Locator) string {
	if id, err := input.GetAttribute("id"); err == nil && id != "" {
		return "#" + id
	}
	if name, err := input.GetAttribute("name"); err == nil && name != "" {
		return "[name='" + name + "']"
	}
	if placeholder, err := input.GetAttribute("placeholder"); err == nil && placeholder != "" {
		return "[placeholder='" + placeholder + "']"
	}
	return ""
}

func humanPause() {
	time.Sleep(200 * time.Millisecond)
}
