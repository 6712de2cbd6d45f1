package sites

var diceSpec = spec{
	name: "dice",

	applyButton:         "[data-cy='apply-button-link']",
	applyButtonFallback: "apply-button-wc, .btn-apply",
	formContainer:       "form[name='applyForm'], .apply-form",
	submitButton:        "button[type='submit']",
	uploadInput:         "input[type='file']",

	appliedTexts: []string{
		"application submitted",
		"you've applied",
		"applied on",
	},
	confirmationTexts: []string{
		"application submitted",
		"thank you for applying",
	},
	challengeSelector: ".g-recaptcha, iframe[src*='captcha']",
}
