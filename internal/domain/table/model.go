package table

// Field names one editable text column of a row.
type Field string

const (
	FieldUnitTask        Field = "unitTask"
	FieldPotentialHazard Field = "potentialHazard"
	FieldSafetyMeasure   Field = "safetyMeasure"
	FieldReflectedItems  Field = "reflectedItems"
)

// Direction is the reorder direction for adjacent swaps.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Row is one unit of hazard analysis.
type Row struct {
	ID              string `json:"id"`
	UnitTask        string `json:"unitTask"`
	PotentialHazard string `json:"potentialHazard"`
	SafetyMeasure   string `json:"safetyMeasure"`
	ReflectedItems  string `json:"reflectedItems"`
}

// ParseField validates a field name coming from a client.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldUnitTask, FieldPotentialHazard, FieldSafetyMeasure, FieldReflectedItems:
		return f, nil
	}
	return "", ErrUnknownField
}

// ParseDirection validates a reorder direction coming from a client.
func ParseDirection(name string) (Direction, error) {
	switch d := Direction(name); d {
	case Up, Down:
		return d, nil
	}
	return "", ErrUnknownDirection
}

// Target returns the neighbour index for a move, and false when it falls
// outside [0, n).
func (d Direction) Target(index, n int) (int, bool) {
	if index < 0 || index >= n {
		return 0, false
	}
	target := index + 1
	if d == Up {
		target = index - 1
	}
	if target < 0 || target >= n {
		return 0, false
	}
	return target, true
}
