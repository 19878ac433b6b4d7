package models

import (
	"fmt"
)

// Subsection is a leaf result inside a Section
type Subsection struct {
	// Name of the subsection
	Name string `bson:"name" json:"name" validate:"required,max=200"`

	// Result of the subsection
	Result Outcome `bson:"result" json:"result" validate:"outcome"`
}

// Section is one part of a test run. It may be broken down further into subsections.
type Section struct {
	// Name of the section
	Name string `bson:"name" json:"name" validate:"required,max=200"`

	// Result of the section itself, not derived from Subsections
	Result Outcome `bson:"result" json:"result" validate:"outcome"`

	// Subsections are optional finer grained results
	Subsections []Subsection `bson:"subsections" json:"subsections" validate:"dive"`
}

// Sections is the ordered section tree of a submission
type Sections []Section

// Occurrence is a single result label found while walking a section tree. Section
// level results have an empty Subsection.
type Occurrence struct {
	// Outcome recorded at this position
	Outcome Outcome

	// Section name
	Section string

	// Subsection name, empty for the section's own result
	Subsection string
}

// QualifiedName returns the display label of the occurrence within a test run:
//
//	TEST - SECTION
//	TEST - SECTION - SUBSECTION
func (o Occurrence) QualifiedName(testName string) string {
	if len(o.Subsection) == 0 {
		return fmt.Sprintf("%s - %s", testName, o.Section)
	}

	return fmt.Sprintf("%s - %s - %s", testName, o.Section, o.Subsection)
}

// Each calls fn for every result in the tree. Each section's own result is visited
// before its subsections, sections and subsections are visited in order.
func (ss Sections) Each(fn func(Occurrence)) {
	for _, section := range ss {
		fn(Occurrence{
			Outcome: section.Result,
			Section: section.Name,
		})

		for _, sub := range section.Subsections {
			fn(Occurrence{
				Outcome:    sub.Result,
				Section:    section.Name,
				Subsection: sub.Name,
			})
		}
	}
}

// Status returns the most severe outcome anywhere in the tree. An empty tree has
// no defined status, callers must reject it before asking, passed is returned.
func (ss Sections) Status() Outcome {
	worst := OutcomePassed

	ss.Each(func(o Occurrence) {
		worst = worst.Worse(o.Outcome)
	})

	return worst
}

// Check returns an error if the tree is empty or holds an unknown outcome
func (ss Sections) Check() error {
	if len(ss) == 0 {
		return fmt.Errorf("at least one section is required")
	}

	var bad *Occurrence
	ss.Each(func(o Occurrence) {
		if bad == nil && !o.Outcome.Valid() {
			found := o
			bad = &found
		}
	})

	if bad != nil {
		return fmt.Errorf("%s has an invalid result", bad.QualifiedName("sections"))
	}

	return nil
}

// clone deep copies the tree so callers cannot mutate a submission's sections.
// Missing subsection lists become empty lists.
func (ss Sections) clone() Sections {
	out := make(Sections, len(ss))
	for i, section := range ss {
		out[i] = section
		out[i].Subsections = append([]Subsection{}, section.Subsections...)
	}

	return out
}
