package records

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	// IDField selects records by their identifier (matricule or id).
	IDField = "ID"
	// DepartmentField selects job records by department.
	DepartmentField = "Department"
)

// Record is a loosely-typed candidate profile or job offer as supplied by the caller.
type Record map[string]any

// Summary is the small set of descriptive fields used for logs and reports.
// Every field is optional.
type Summary struct {
	ID           string `mapstructure:"id"`
	Matricule    string `mapstructure:"matricule"`
	FirstName    string `mapstructure:"firstName"`
	LastName     string `mapstructure:"lastName"`
	Title        string `mapstructure:"title"`
	TitreDePoste string `mapstructure:"titre_de_poste"`
	Departement  string `mapstructure:"departement"`
}

// Summary decodes the descriptive fields of the record. Fields with an
// unexpected shape are left empty.
func (r Record) Summary() Summary {
	var s Summary
	if len(r) == 0 {
		return s
	}

	cfg := &mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return s
	}
	// mapstructure keeps decoding the remaining fields after a bad one
	_ = decoder.Decode(map[string]any(r))

	return s
}

// ID returns the record identifier: matricule first, then id.
func (r Record) ID() string {
	s := r.Summary()
	if id := strings.TrimSpace(s.Matricule); id != "" {
		return id
	}
	return strings.TrimSpace(s.ID)
}

// JobTitle returns title, falling back to titre_de_poste.
func (r Record) JobTitle() string {
	s := r.Summary()
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return strings.TrimSpace(s.TitreDePoste)
}

// CandidateName joins first and last name.
func (r Record) CandidateName() string {
	s := r.Summary()
	return strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
}

// Label is a short human readable description used in logs and prompts.
func (r Record) Label() string {
	s := r.Summary()
	parts := make([]string, 0, 3)
	if id := r.ID(); id != "" {
		parts = append(parts, id)
	}
	if name := r.CandidateName(); name != "" {
		parts = append(parts, name)
	}
	if title := r.JobTitle(); title != "" {
		parts = append(parts, title)
	}
	if dep := strings.TrimSpace(s.Departement); dep != "" {
		parts = append(parts, fmt.Sprintf("(%s)", dep))
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, " | ")
}

func (r Record) GetStringField(name string) string {
	switch name {
	case IDField:
		return r.ID()
	case DepartmentField:
		return strings.TrimSpace(r.Summary().Departement)
	default:
		return ""
	}
}

// Records is an ordered batch of records.
type Records struct {
	Items []Record
}

func (r *Records) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

func (r *Records) FindByID(id string) Record {
	for _, record := range r.Items {
		if record.ID() == id {
			return record
		}
	}
	return nil
}

// Labels returns the label of every record, in order.
func (r *Records) Labels() []string {
	labels := make([]string, 0, r.Len())
	for _, record := range r.Items {
		labels = append(labels, record.Label())
	}
	return labels
}
