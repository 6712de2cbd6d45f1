package automation

import (
	"fmt"
	"strings"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/pkg/errors"
)

// FieldKind classifies what data a form field expects.
type FieldKind string

const (
	FieldFirstName  FieldKind = "first_name"
	FieldLastName   FieldKind = "last_name"
	FieldFullName   FieldKind = "full_name"
	FieldEmail      FieldKind = "email"
	FieldPhone      FieldKind = "phone"
	FieldLocation   FieldKind = "location"
	FieldExperience FieldKind = "experience"
	FieldResume     FieldKind = "resume"
	FieldMessage    FieldKind = "message"
	FieldUnknown    FieldKind = "unknown"
)

type Field struct {
	Kind     FieldKind
	Selector string
	Required bool
}

// Form is the detected structure of a site's application form.
type Form struct {
	Fields         []Field
	RequiresUpload bool
}

// FormValues maps field kinds to the values filled from the profile and
// the plan.
type FormValues map[FieldKind]string

// BuildValues derives fill values from the profile. The resume path
// comes from the plan, not the profile.
func BuildValues(profile models.UserProfile, plan models.ApplicationPlan) FormValues {
	return FormValues{
		FieldFirstName:  profile.FirstName,
		FieldLastName:   profile.LastName,
		FieldFullName:   profile.FullName(),
		FieldEmail:      profile.Email,
		FieldPhone:      profile.Phone,
		FieldLocation:   profile.Location,
		FieldExperience: fmt.Sprintf("%d", profile.ExperienceYears),
		FieldResume:     plan.ResumePath,
		FieldMessage: fmt.Sprintf("I am interested in this position and believe my %d years of experience would be valuable.",
			profile.ExperienceYears),
	}
}

// Validate checks that every required field of the form has a non-empty
// value. A gap is fatal for this attempt only.
func (f Form) Validate(values FormValues) error {
	var missing []string
	for _, field := range f.Fields {
		if field.Required && strings.TrimSpace(values[field.Kind]) == "" {
			missing = append(missing, string(field.Kind))
		}
	}
	if f.RequiresUpload && strings.TrimSpace(values[FieldResume]) == "" {
		missing = append(missing, string(FieldResume))
	}

	if len(missing) > 0 {
		return errors.Errorf("required fields without values: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ClassifyField maps a field's name/id/placeholder text onto a kind, the
// same keyword heuristics all site automators share.
func ClassifyField(descriptor string) FieldKind {
	descriptor = strings.ToLower(descriptor)

	keywordKinds := []struct {
		kind     FieldKind
		keywords []string
	}{
		{FieldFirstName, []string{"firstname", "first-name", "fname", "given-name"}},
		{FieldLastName, []string{"lastname", "last-name", "lname", "family-name"}},
		{FieldFullName, []string{"fullname", "full-name"}},
		{FieldEmail, []string{"email", "e-mail"}},
		{FieldPhone, []string{"phone", "telephone", "mobile", "tel"}},
		{FieldLocation, []string{"location", "address", "city"}},
		{FieldResume, []string{"resume", "cv", "upload"}},
		{FieldExperience, []string{"experience", "years", "yoe"}},
		{FieldMessage, []string{"cover", "letter", "message", "why", "comments"}},
	}

	for _, entry := range keywordKinds {
		for _, keyword := range entry.keywords {
			if strings.Contains(descriptor, keyword) {
				return entry.kind
			}
		}
	}
	return FieldUnknown
}
