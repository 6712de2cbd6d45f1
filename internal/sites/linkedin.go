package sites

// linkedinSpec targets the Easy Apply flow; postings without it fail at
// form detection and are reported as element_not_found.
var linkedinSpec = spec{
	name: "linkedin",

	applyButton:         "[aria-label*='Easy Apply']",
	applyButtonFallback: ".jobs-apply-button",
	formContainer:       ".jobs-easy-apply-content, .jobs-easy-apply-modal",
	submitButton:        "[aria-label*='Submit application']",
	uploadInput:         "input[type='file']",

	appliedTexts: []string{
		"applied",
		"application sent",
		"view application",
	},
	confirmationTexts: []string{
		"application sent",
		"your application was sent",
		"done",
	},
	challengeSelector: "#captcha-internal, .challenge-dialog, iframe[src*='captcha']",
}
