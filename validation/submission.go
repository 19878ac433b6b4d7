package validation

import (
	"strings"

	"github.com/kscout/runboard-api/models"
)

// trimSections trims every section and subsection name in place
func trimSections(sections []models.Section) {
	for i := range sections {
		sections[i].Name = strings.TrimSpace(sections[i].Name)

		for j := range sections[i].Subsections {
			sub := &sections[i].Subsections[j]
			sub.Name = strings.TrimSpace(sub.Name)
		}
	}
}

// trimPtr trims the string s points to, if any
func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// ValidateSubmission trims a new submission's text fields in place and ensures all
// constraints are met
func ValidateSubmission(input *models.SubmissionInput) error {
	input.Team = strings.TrimSpace(input.Team)
	input.TestName = strings.TrimSpace(input.TestName)
	trimSections(input.Sections)

	return check(input)
}

// ValidateChanges trims a submission update's text fields in place and ensures all
// supplied fields meet their constraints. A supplied but empty section list is
// invalid.
func ValidateChanges(changes *models.SubmissionChanges) error {
	trimPtr(changes.Team)
	trimPtr(changes.TestName)
	trimSections(changes.Sections)

	if err := check(changes); err != nil {
		return err
	}

	if changes.Sections != nil && len(changes.Sections) == 0 {
		return models.NewValidationError("sections", "must have at least 1 item(s)")
	}

	return nil
}

// ValidateProfile trims a profile update in place and ensures it is valid
func ValidateProfile(changes *models.ProfileChanges) error {
	changes.Team = strings.TrimSpace(changes.Team)

	return check(changes)
}
