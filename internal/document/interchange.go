package document

import "form95/internal/fieldmap"

// Interchange is the pdfcpu form fill JSON layout.
type Interchange struct {
	Forms []Form `json:"forms"`
}

type Form struct {
	TextFields []TextField `json:"textfield,omitempty"`
	CheckBoxes []CheckBox  `json:"checkbox,omitempty"`
}

type TextField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type CheckBox struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

// NewInterchange partitions fm by kind, keeping field order.
func NewInterchange(fm fieldmap.FieldMap) Interchange {
	var form Form
	for _, v := range fm.Values {
		if v.Kind == fieldmap.KindCheckbox {
			form.CheckBoxes = append(form.CheckBoxes, CheckBox{Name: v.Key, Value: v.Checked})
			continue
		}
		form.TextFields = append(form.TextFields, TextField{Name: v.Key, Value: v.Text})
	}
	return Interchange{Forms: []Form{form}}
}
