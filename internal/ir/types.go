package ir

// SpecSet is the compiled form of a set of CUE spec files.
type SpecSet struct {
	Records    []RecordSpec    `json:"records"`
	Extensions []ExtensionSpec `json:"extensions"`
}

// Record returns the record spec with the given name.
func (s *SpecSet) Record(name string) (*RecordSpec, bool) {
	for i := range s.Records {
		if s.Records[i].Name == name {
			return &s.Records[i], true
		}
	}
	return nil, false
}

// Merge appends the records and extensions of other.
func (s *SpecSet) Merge(other *SpecSet) {
	if other == nil {
		return
	}
	s.Records = append(s.Records, other.Records...)
	s.Extensions = append(s.Extensions, other.Extensions...)
}

// RecordSpec represents a compiled record type.
type RecordSpec struct {
	Name           string             `json:"name"`
	Purpose        string             `json:"purpose,omitempty"`
	Positional     bool               `json:"positional,omitempty"` // deconstructor generated from fields
	Fields         []FieldSpec        `json:"fields"`
	Deconstructors []DeconstructorSig `json:"deconstructors"`
}

// FieldIndex returns the position of the named field, or -1.
func (r *RecordSpec) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldSpec is a named, typed record field.
type FieldSpec struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// DeconstructorSig is an intrinsic decomposition of a record.
type DeconstructorSig struct {
	Parts []PartSig `json:"parts"`
}

// Arity returns the number of output parts.
func (d DeconstructorSig) Arity() int {
	return len(d.Parts)
}

// PartSig is one output slot of a decomposition.
// From is a projection path evaluated against the decomposed value.
type PartSig struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
	From string `json:"from"`
}

// ExtensionSpec is an externally attached decomposition.
// Target may mention the type parameters listed in Params.
type ExtensionSpec struct {
	Name   string    `json:"name"`
	Params []string  `json:"params,omitempty"`
	Target Type      `json:"target"`
	Parts  []PartSig `json:"parts"`
}

// Arity returns the number of output parts.
func (e ExtensionSpec) Arity() int {
	return len(e.Parts)
}
