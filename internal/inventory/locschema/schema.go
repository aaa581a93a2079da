// internal/inventory/locschema/schema.go
package locschema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"labeldesk/internal/models"
)

type Field string

const (
	FFloor Field = "floor"
	FSuite Field = "suite"
	FRow   Field = "row"
	FRack  Field = "rack"
	FArea  Field = "area"
)

type FieldDef struct {
	Field    Field
	Example  string
	Validate func(string) (string, error) // нормализация/проверка одного значения
	Required bool
}

/* --- validators --- */

var reCoord = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._\-]*$`)

func normCoord(max int) func(string) (string, error) {
	return func(v string) (string, error) {
		s := strings.ToUpper(strings.TrimSpace(v))
		if s == "" {
			return "", errors.New("empty")
		}
		if len(s) > max {
			return "", fmt.Errorf("longer than %d chars", max)
		}
		if !reCoord.MatchString(s) {
			return "", errors.New("only letters, digits, space, '.', '_' and '-' allowed")
		}
		return s, nil
	}
}

func normArea(v string) (string, error) {
	s := strings.Join(strings.Fields(v), " ")
	if s == "" {
		return "", errors.New("empty")
	}
	if len(s) > 64 {
		return "", errors.New("longer than 64 chars")
	}
	return s, nil
}

/* --- catalog --- */

// Templates maps every template to its positional fields. A template not listed
// here is rejected.
var Templates = map[models.LocationTemplate][]FieldDef{
	models.TemplateRack: {
		{Field: FFloor, Example: "2", Validate: normCoord(32), Required: true},
		{Field: FSuite, Example: "B", Validate: normCoord(32), Required: true},
		{Field: FRow, Example: "R04", Validate: normCoord(32), Required: true},
		{Field: FRack, Example: "12", Validate: normCoord(32), Required: true},
	},
	models.TemplateArea: {
		{Field: FFloor, Example: "1", Validate: normCoord(32), Required: true},
		{Field: FArea, Example: "Loading dock", Validate: normArea, Required: true},
	},
}

// Input is the raw positional data of a location request.
type Input struct {
	Template models.LocationTemplate `json:"template"`
	Floor    string                  `json:"floor"`
	Suite    string                  `json:"suite"`
	Row      string                  `json:"row"`
	Rack     string                  `json:"rack"`
	Area     string                  `json:"area"`
}

func (in Input) get(f Field) string {
	switch f {
	case FFloor:
		return in.Floor
	case FSuite:
		return in.Suite
	case FRow:
		return in.Row
	case FRack:
		return in.Rack
	case FArea:
		return in.Area
	}
	return ""
}

// Apply validates in against its template and returns a location whose
// positional fields are normalized. Fields outside the template are dropped.
func Apply(in Input) (models.Location, error) {
	defs, ok := Templates[in.Template]
	if !ok {
		return models.Location{}, models.Invalid("template", fmt.Sprintf("unknown template %q", in.Template))
	}
	loc := models.Location{Template: in.Template}
	for _, d := range defs {
		raw := in.get(d.Field)
		if strings.TrimSpace(raw) == "" {
			if d.Required {
				return models.Location{}, models.Invalid(string(d.Field), fmt.Sprintf("required for %s template", in.Template))
			}
			continue
		}
		v, err := d.Validate(raw)
		if err != nil {
			return models.Location{}, models.Invalid(string(d.Field), err.Error())
		}
		switch d.Field {
		case FFloor:
			loc.Floor = v
		case FSuite:
			loc.Suite = v
		case FRow:
			loc.Row = v
		case FRack:
			loc.Rack = v
		case FArea:
			loc.Area = v
		}
	}
	return loc, nil
}
