package employees

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/khanghh/klms/model"
	"github.com/spf13/cast"
)

// PatchField names an employee attribute an admin update may change.
type PatchField string

const (
	FieldEmail      PatchField = "email"
	FieldFullName   PatchField = "full_name"
	FieldDepartment PatchField = "department"
	FieldRole       PatchField = "role"
	FieldIsActive   PatchField = "is_active"
	FieldPassword   PatchField = "password"
)

// PatchableFields lists every field accepted by Update. emp_id is deliberately absent.
var PatchableFields = []PatchField{FieldEmail, FieldFullName, FieldDepartment, FieldRole, FieldIsActive, FieldPassword}

const empIDKey = "emp_id"

// Patch is a validated set of field changes. The zero value is an empty patch.
type Patch struct {
	empID  *string
	values map[PatchField]interface{}
}

func (p *Patch) set(field PatchField, value interface{}) {
	if p.values == nil {
		p.values = make(map[PatchField]interface{})
	}
	p.values[field] = value
}

func (p *Patch) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	p.set(FieldEmail, strings.ToLower(email))
	return nil
}

func (p *Patch) SetFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: %s", ErrInvalidValue, FieldFullName)
	}
	p.set(FieldFullName, name)
	return nil
}

func (p *Patch) SetDepartment(department string) {
	p.set(FieldDepartment, strings.TrimSpace(department))
}

func (p *Patch) SetRole(role model.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	p.set(FieldRole, role)
	return nil
}

func (p *Patch) SetActive(active bool) {
	p.set(FieldIsActive, active)
}

func (p *Patch) SetPassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: %s", ErrInvalidValue, FieldPassword)
	}
	p.set(FieldPassword, password)
	return nil
}

// RequestEmpID records an attempted employee id; Update rejects it when it differs from the stored one.
func (p *Patch) RequestEmpID(empID string) {
	p.empID = &empID
}

func (p *Patch) Has(field PatchField) bool {
	_, ok := p.values[field]
	return ok
}

func (p *Patch) Len() int {
	return len(p.values)
}

// Fields returns the patched fields in PatchableFields order.
func (p *Patch) Fields() []PatchField {
	fields := make([]PatchField, 0, len(p.values))
	for _, field := range PatchableFields {
		if p.Has(field) {
			fields = append(fields, field)
		}
	}
	return fields
}

// ParsePatch builds a Patch from a loosely typed request body. Unknown keys are ignored.
func ParsePatch(body map[string]interface{}) (Patch, error) {
	var patch Patch
	if raw, ok := body[empIDKey]; ok && raw != nil {
		empID, err := cast.ToStringE(raw)
		if err != nil {
			return patch, fmt.Errorf("%w: %s", ErrInvalidValue, empIDKey)
		}
		patch.RequestEmpID(empID)
	}
	for _, field := range PatchableFields {
		raw, ok := body[string(field)]
		if !ok || raw == nil {
			continue
		}
		if field == FieldIsActive {
			active, err := cast.ToBoolE(raw)
			if err != nil {
				return patch, fmt.Errorf("%w: %s", ErrInvalidValue, field)
			}
			patch.SetActive(active)
			continue
		}
		value, err := cast.ToStringE(raw)
		if err != nil {
			return patch, fmt.Errorf("%w: %s", ErrInvalidValue, field)
		}
		switch field {
		case FieldEmail:
			err = patch.SetEmail(value)
		case FieldFullName:
			err = patch.SetFullName(value)
		case FieldDepartment:
			patch.SetDepartment(value)
		case FieldRole:
			err = patch.SetRole(model.Role(value))
		case FieldPassword:
			err = patch.SetPassword(value)
		}
		if err != nil {
			return patch, err
		}
	}
	return patch, nil
}
