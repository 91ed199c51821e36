package metadata

import "time"

// SchemaVersion is the version of the FunctionMetadata layout written today.
const SchemaVersion = "2.0"

// FunctionMetadata is the resolved interface of one remote-enabled function.
type FunctionMetadata struct {
	Name          string                       `json:"name"`
	Description   string                       `json:"description"`
	Area          string                       `json:"area"`
	Application   string                       `json:"application,omitempty"`
	DevClass      string                       `json:"dev_class"`
	ReleaseDate   string                       `json:"release_date"`
	Language      string                       `json:"language"`
	SchemaVersion string                       `json:"schema_version"`
	RetrievedAt   time.Time                    `json:"retrieved_at"`
	Inputs        map[string]ParameterMetadata `json:"inputs"`
	Outputs       map[string]ParameterMetadata `json:"outputs"`
	Tables        map[string]ParameterMetadata `json:"tables"`

	// Parameters whose sub-lookups failed and carry placeholder metadata.
	PartialParameters []string `json:"partial_parameters,omitempty"`
}

// ParameterMetadata describes one importing, exporting, changing or tables
// parameter.
type ParameterMetadata struct {
	Type        string                   `json:"type"`
	SAPType     string                   `json:"sap_type"`
	Length      int                      `json:"length"`
	Decimals    int                      `json:"decimals"`
	Description string                   `json:"description,omitempty"`
	Default     string                   `json:"default,omitempty"`
	Optional    bool                     `json:"optional,omitempty"`
	DataElement string                   `json:"data_element,omitempty"`
	Fields      map[string]FieldMetadata `json:"fields,omitempty"`
}

// FieldMetadata describes one field of a table or structure.
type FieldMetadata struct {
	Type        string `json:"type"`
	SAPType     string `json:"sap_type"`
	Length      int    `json:"length"`
	Decimals    int    `json:"decimals"`
	Position    int    `json:"position"`
	Description string `json:"description"`
	KeyField    bool   `json:"key_field"`
	DataElement string `json:"data_element"`
	Domain      string `json:"domain"`
	CheckTable  string `json:"check_table,omitempty"`
}

// TableStructure is the field catalog of a table.
type TableStructure struct {
	TableName          string                   `json:"table_name"`
	Fields             map[string]FieldMetadata `json:"fields"`
	StructureAvailable bool                     `json:"structure_available"`
	Error              string                   `json:"error,omitempty"`
}

// FunctionSummary is one row of a catalog listing.
type FunctionSummary struct {
	Name        string `json:"name"`
	DevClass    string `json:"dev_class"`
	Description string `json:"description"`
}

// Clone returns a deep copy of md.
func (md *FunctionMetadata) Clone() *FunctionMetadata {
	if md == nil {
		return nil
	}
	out := *md
	out.Inputs = cloneParameters(md.Inputs)
	out.Outputs = cloneParameters(md.Outputs)
	out.Tables = cloneParameters(md.Tables)
	if md.PartialParameters != nil {
		out.PartialParameters = append([]string(nil), md.PartialParameters...)
	}
	return &out
}

// Clone returns a deep copy of p.
func (p ParameterMetadata) Clone() ParameterMetadata {
	out := p
	if p.Fields != nil {
		out.Fields = make(map[string]FieldMetadata, len(p.Fields))
		for name, field := range p.Fields {
			out.Fields[name] = field
		}
	}
	return out
}

// ParameterNames returns the names of all parameters in any direction.
func (md *FunctionMetadata) ParameterNames() []string {
	var names []string
	for _, group := range []map[string]ParameterMetadata{md.Inputs, md.Outputs, md.Tables} {
		for name := range group {
			names = append(names, name)
		}
	}
	return names
}

func cloneParameters(in map[string]ParameterMetadata) map[string]ParameterMetadata {
	if in == nil {
		return nil
	}
	out := make(map[string]ParameterMetadata, len(in))
	for name, p := range in {
		out[name] = p.Clone()
	}
	return out
}
