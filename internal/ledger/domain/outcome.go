package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Outcome é um booleano de três estados usado em Event.Completed e Bet.Won.
// Unresolved corresponde ao NULL no banco (ainda não resolvido).
type Outcome int8

const (
	Unresolved Outcome = iota
	Yes
	No
)

// OutcomeOf converte um bool em Yes/No
func OutcomeOf(b bool) Outcome {
	if b {
		return Yes
	}
	return No
}

func (o Outcome) Resolved() bool { return o != Unresolved }

func (o Outcome) String() string {
	switch o {
	case Yes:
		return "true"
	case No:
		return "false"
	default:
		return "null"
	}
}

// Value implementa driver.Valuer (NULL | TRUE | FALSE)
func (o Outcome) Value() (driver.Value, error) {
	switch o {
	case Yes:
		return true, nil
	case No:
		return false, nil
	default:
		return nil, nil
	}
}

// Scan implementa sql.Scanner
func (o *Outcome) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = Unresolved
	case bool:
		*o = OutcomeOf(v)
	case []byte:
		return o.parse(string(v))
	case string:
		return o.parse(v)
	default:
		return fmt.Errorf("outcome: unsupported scan type %T", src)
	}
	return nil
}

func (o *Outcome) parse(s string) error {
	switch s {
	case "t", "true", "TRUE":
		*o = Yes
	case "f", "false", "FALSE":
		*o = No
	default:
		return fmt.Errorf("outcome: invalid value %q", s)
	}
	return nil
}

func (o Outcome) MarshalJSON() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		*o = Unresolved
		return nil
	}
	*o = OutcomeOf(*v)
	return nil
}
