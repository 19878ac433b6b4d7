package validation

import (
	"strings"
	"testing"

	"github.com/kscout/runboard-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fields returns the field paths of a validation error
func fields(t *testing.T, err error) []string {
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	paths := []string{}
	for _, f := range verr.Fields {
		paths = append(paths, f.Field)
	}

	return paths
}

// TestValidateSubmissionTrims ensures names are trimmed before lengths are checked
func TestValidateSubmissionTrims(t *testing.T) {
	input := models.SubmissionInput{
		Team:     "  qa ",
		TestName: " nightly ",
		Sections: []models.Section{{
			Name:   " login ",
			Result: models.OutcomePassed,
			Subsections: []models.Subsection{
				{Name: " form", Result: models.OutcomeSkipped},
			},
		}},
	}

	require.NoError(t, ValidateSubmission(&input))
	assert.Equal(t, "qa", input.Team)
	assert.Equal(t, "nightly", input.TestName)
	assert.Equal(t, "login", input.Sections[0].Name)
	assert.Equal(t, "form", input.Sections[0].Subsections[0].Name)
}

// TestValidateSubmissionFields ensures each broken field is reported by its JSON path
func TestValidateSubmissionFields(t *testing.T) {
	input := models.SubmissionInput{
		Team:     strings.Repeat("t", 101),
		TestName: "   ",
		Sections: []models.Section{{
			Name:   "ok",
			Result: models.OutcomePassed,
			Subsections: []models.Subsection{
				{Name: "", Result: models.OutcomePassed},
				{Name: "bad", Result: models.Outcome(9)},
			},
		}},
	}

	assert.ElementsMatch(t, []string{
		"team",
		"testName",
		"sections[0].subsections[0].name",
		"sections[0].subsections[1].result",
	}, fields(t, ValidateSubmission(&input)))
}

// TestValidateSubmissionRequiresSections ensures an empty tree is rejected
func TestValidateSubmissionRequiresSections(t *testing.T) {
	input := models.SubmissionInput{TestName: "empty", Sections: []models.Section{}}
	assert.Equal(t, []string{"sections"}, fields(t, ValidateSubmission(&input)))

	input = models.SubmissionInput{TestName: "missing"}
	assert.Equal(t, []string{"sections"}, fields(t, ValidateSubmission(&input)))
}

// TestValidateSubmissionIgnoresStatus ensures a supplied status is never checked
func TestValidateSubmissionIgnoresStatus(t *testing.T) {
	input := models.SubmissionInput{
		TestName: "run",
		Status:   "not-a-status",
		Sections: []models.Section{{Name: "s", Result: models.OutcomeErrored}},
	}

	assert.NoError(t, ValidateSubmission(&input))
}

// TestValidateChanges ensures only supplied fields are checked
func TestValidateChanges(t *testing.T) {
	assert.NoError(t, ValidateChanges(&models.SubmissionChanges{}))

	name := "  "
	assert.Equal(t, []string{"testName"},
		fields(t, ValidateChanges(&models.SubmissionChanges{TestName: &name})))

	assert.Equal(t, []string{"sections"},
		fields(t, ValidateChanges(&models.SubmissionChanges{Sections: []models.Section{}})))

	team := " web "
	changes := models.SubmissionChanges{Team: &team}
	require.NoError(t, ValidateChanges(&changes))
	assert.Equal(t, "web", *changes.Team)
}

// TestValidateProfile ensures a team is required
func TestValidateProfile(t *testing.T) {
	assert.Equal(t, []string{"team"}, fields(t, ValidateProfile(&models.ProfileChanges{Team: " "})))
	assert.NoError(t, ValidateProfile(&models.ProfileChanges{Team: "web"}))
}
