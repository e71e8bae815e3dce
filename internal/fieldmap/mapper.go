package fieldmap

import (
	"strings"

	"form95/internal/logger"
	"form95/internal/utils"
)

type Mapper struct {
	log   logger.Logger
	dates *utils.DateParser
}

func NewMapper() *Mapper {
	return &Mapper{
		log:   logger.New("fieldmap").File("mapper"),
		dates: utils.NewDateParser(),
	}
}

// Inputs that only feed derived fields.
var auxiliaryInputs = []string{InputName, InputAddress, InputCity, InputState, InputZip, InputEmail}

var amountInputs = map[string]string{
	FieldPropertyDamage: InputPropertyDamage,
	FieldPersonalInjury: InputPersonalInjury,
	FieldWrongfulDeath:  InputWrongfulDeath,
}

// Map turns raw form input into the canonical field map. At the final
// stage with a prior map only signature fields are read from raw; every
// other value comes from prior. The total is recomputed in both cases.
func (m *Mapper) Map(raw map[string]string, stage Stage, prior *FieldMap) Result {
	log := m.log.Function("Map")

	var result Result
	if stage == StageFinal && prior != nil && !prior.Empty() {
		result = m.overlay(raw, *prior)
	} else {
		result = m.resolve(raw, stage)
	}

	for _, d := range result.Diagnostics {
		if d.Reason == ReasonMissing {
			log.Debug("field has no value or default", "key", d.Key, "stage", stage)
			continue
		}
		log.Warn("field value not normalized", "key", d.Key, "reason", d.Reason, "value", d.Value, "stage", stage)
	}

	return result
}

func (m *Mapper) resolve(raw map[string]string, stage Stage) Result {
	var result Result
	resolved := make(map[string]string, len(raw))

	for _, input := range auxiliaryInputs {
		if value := strings.TrimSpace(raw[input]); value != "" {
			resolved[input] = value
		}
	}

	for _, spec := range Fields {
		if spec.Signature && stage != StageFinal {
			continue
		}

		var (
			text string
			ok   bool
		)
		if spec.Derive != nil {
			text, ok = spec.Derive(resolved)
		} else {
			text, ok = resolveInput(raw, spec)
		}
		if !ok {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{Key: spec.Key, Reason: ReasonMissing})
			continue
		}

		if spec.Input != "" {
			resolved[spec.Input] = text
		}

		value, diag := m.format(spec, text)
		result.Map.Values = append(result.Map.Values, value)
		if diag != nil {
			result.Diagnostics = append(result.Diagnostics, *diag)
		}
	}

	return result
}

func (m *Mapper) overlay(raw map[string]string, prior FieldMap) Result {
	result := Result{Map: prior.Clone()}

	for _, spec := range Fields {
		if !spec.Signature {
			continue
		}

		text, ok := resolveInput(raw, spec)
		if !ok {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{Key: spec.Key, Reason: ReasonMissing})
			continue
		}

		value, diag := m.format(spec, text)
		result.Map.Set(value)
		if diag != nil {
			result.Diagnostics = append(result.Diagnostics, *diag)
		}
	}

	resolved := make(map[string]string, len(amountInputs))
	for key, input := range amountInputs {
		resolved[input] = prior.Text(key)
	}

	spec, _ := Lookup(FieldTotal)
	total, _ := spec.Derive(resolved)
	value, _ := m.format(spec, total)
	result.Map.Set(value)

	return result
}

func resolveInput(raw map[string]string, spec Spec) (string, bool) {
	if value := strings.TrimSpace(raw[spec.Input]); value != "" {
		return value, true
	}
	if spec.Default != "" {
		return spec.Default, true
	}
	return "", false
}

func (m *Mapper) format(spec Spec, text string) (Value, *Diagnostic) {
	value := Value{Key: spec.Key, Kind: spec.Kind, Text: text}

	switch spec.Kind {
	case KindCurrency:
		amount, ok := ParseAmount(text)
		if !ok {
			return value, &Diagnostic{Key: spec.Key, Reason: ReasonUnformatted, Value: text}
		}
		value.Text = FormatCurrency(amount)

	case KindCheckbox:
		checked, known := ParseCheckbox(text)
		value.Checked = checked
		value.Text = "false"
		if checked {
			value.Text = "true"
		}
		if !known {
			return value, &Diagnostic{Key: spec.Key, Reason: ReasonAmbiguousBoolean, Value: text}
		}

	case KindDate:
		normalized, ok := m.dates.Normalize(text)
		if !ok {
			return value, &Diagnostic{Key: spec.Key, Reason: ReasonUnformatted, Value: text}
		}
		value.Text = normalized
	}

	return value, nil
}
