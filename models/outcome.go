package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Outcome is the result of a test run section or subsection. Values are ordered by
// severity, the numeric value of an Outcome is its severity rank.
type Outcome int

// OutcomePassed indicates the tests ran and passed
const OutcomePassed Outcome = 1

// OutcomeSkipped indicates the tests were not run
const OutcomeSkipped Outcome = 2

// OutcomeFailed indicates at least one test assertion failed
const OutcomeFailed Outcome = 3

// OutcomeErrored indicates the tests could not complete
const OutcomeErrored Outcome = 4

// Outcomes lists every valid Outcome from least to most severe
var Outcomes = []Outcome{OutcomePassed, OutcomeSkipped, OutcomeFailed, OutcomeErrored}

// outcomeLabels maps outcomes to their wire labels
var outcomeLabels = map[Outcome]string{
	OutcomePassed:  "passed",
	OutcomeSkipped: "skipped",
	OutcomeFailed:  "failed",
	OutcomeErrored: "errored",
}

// ParseOutcome converts a wire label into an Outcome
func ParseOutcome(label string) (Outcome, error) {
	for o, l := range outcomeLabels {
		if l == label {
			return o, nil
		}
	}

	return 0, fmt.Errorf("unknown outcome \"%s\", must be one of: passed, failed, skipped, errored",
		label)
}

// Valid reports whether o is one of the four known outcomes
func (o Outcome) Valid() bool {
	_, ok := outcomeLabels[o]
	return ok
}

// Severity returns the rank of o, higher is worse
func (o Outcome) Severity() int {
	return int(o)
}

// Worse returns the more severe of o and other
func (o Outcome) Worse(other Outcome) Outcome {
	if other.Severity() > o.Severity() {
		return other
	}

	return o
}

// String returns the wire label
func (o Outcome) String() string {
	if l, ok := outcomeLabels[o]; ok {
		return l
	}

	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid outcome %d", int(o))
	}

	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}

	*o = parsed
	return nil
}

// MarshalBSONValue stores outcomes as their wire label
func (o Outcome) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !o.Valid() {
		return 0, nil, fmt.Errorf("cannot marshal invalid outcome %d", int(o))
	}

	return bson.MarshalValue(o.String())
}

// UnmarshalBSONValue reads an outcome label stored by MarshalBSONValue
func (o *Outcome) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	label, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("outcome must be stored as a string, got %s", t)
	}

	return o.UnmarshalText([]byte(label))
}
