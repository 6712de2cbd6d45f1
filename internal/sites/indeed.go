package sites

var indeedSpec = spec{
	name: "indeed",

	applyButton:         "[aria-label*='Apply now']",
	applyButtonFallback: "#indeedApplyButton, .jobsearch-IndeedApplyButton-newDesign",
	formContainer:       ".ia-ApplyFormScreen, .indeed-apply-bd",
	submitButton:        "button[aria-label*='Continue'], button[type='submit']",
	uploadInput:         "input[type='file']",

	appliedTexts: []string{
		"already applied",
		"application submitted",
		"you applied",
	},
	confirmationTexts: []string{
		"application submitted",
		"your application has been submitted",
	},
	challengeSelector: "#challenge-running, .g-recaptcha, iframe[src*='hcaptcha']",
}
