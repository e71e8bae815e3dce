package fieldmap

// Value is one filled document field. Text carries the interchange value
// for every kind; Checked mirrors it for checkboxes.
type Value struct {
	Key     string `json:"key"`
	Kind    Kind   `json:"kind"`
	Text    string `json:"text"`
	Checked bool   `json:"checked,omitempty"`
}

// FieldMap is the canonical map for one submission, ordered as Fields.
type FieldMap struct {
	Values []Value `json:"values"`
}

type DiagnosticReason string

const (
	ReasonMissing          DiagnosticReason = "missing"
	ReasonUnformatted      DiagnosticReason = "unformatted"
	ReasonAmbiguousBoolean DiagnosticReason = "ambiguous_boolean"
)

type Diagnostic struct {
	Key    string           `json:"key"`
	Reason DiagnosticReason `json:"reason"`
	Value  string           `json:"value,omitempty"`
}

type Result struct {
	Map         FieldMap
	Diagnostics []Diagnostic
}

var tableOrder = func() map[string]int {
	order := make(map[string]int, len(Fields))
	for i, spec := range Fields {
		order[spec.Key] = i
	}
	return order
}()

func (fm FieldMap) Get(key string) (Value, bool) {
	for _, v := range fm.Values {
		if v.Key == key {
			return v, true
		}
	}
	return Value{}, false
}

func (fm FieldMap) Text(key string) string {
	v, _ := fm.Get(key)
	return v.Text
}

// Set replaces the value for v.Key or inserts it at its table position.
func (fm *FieldMap) Set(v Value) {
	for i := range fm.Values {
		if fm.Values[i].Key == v.Key {
			fm.Values[i] = v
			return
		}
	}

	pos := len(fm.Values)
	if want, ok := tableOrder[v.Key]; ok {
		for i, existing := range fm.Values {
			if at, known := tableOrder[existing.Key]; !known || at > want {
				pos = i
				break
			}
		}
	}

	fm.Values = append(fm.Values, Value{})
	copy(fm.Values[pos+1:], fm.Values[pos:])
	fm.Values[pos] = v
}

func (fm FieldMap) Len() int {
	return len(fm.Values)
}

func (fm FieldMap) Empty() bool {
	return len(fm.Values) == 0
}

func (fm FieldMap) Clone() FieldMap {
	if fm.Values == nil {
		return FieldMap{}
	}
	values := make([]Value, len(fm.Values))
	copy(values, fm.Values)
	return FieldMap{Values: values}
}

// ByColumn indexes the map by claim column for fields that persist to one.
func (fm FieldMap) ByColumn() map[string]Value {
	columns := make(map[string]Value, len(fm.Values))
	for _, v := range fm.Values {
		if spec, ok := Lookup(v.Key); ok && spec.Column != "" {
			columns[spec.Column] = v
		}
	}
	return columns
}

// Column is a claim column the field table persists to.
type Column struct {
	Name string
	Kind Kind
}

func RequiredColumns() []Column {
	var columns []Column
	for _, spec := range Fields {
		if spec.Column != "" {
			columns = append(columns, Column{Name: spec.Column, Kind: spec.Kind})
		}
	}
	return columns
}
