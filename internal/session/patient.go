package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// patientSchema constrains a patient-context JSON file. All fields are
// free-form display strings; the schema only rejects wrong shapes.
var patientSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"name": map[string]any{"type": "string"},
		"age":  map[string]any{"type": "string"},
		"sex":  map[string]any{"type": "string"},
	},
}

// LoadPatientContext reads and validates a patient-context JSON file.
func LoadPatientContext(path string) (PatientContext, error) {
	var pc PatientContext
	data, err := os.ReadFile(path)
	if err != nil {
		return pc, fmt.Errorf("read patient context: %w", err)
	}
	if err := validatePatientJSON(data); err != nil {
		return pc, err
	}
	if err := json.Unmarshal(data, &pc); err != nil {
		return pc, fmt.Errorf("unmarshal patient context: %w", err)
	}
	return pc, nil
}

// validatePatientJSON validates "data" against the patient schema.
func validatePatientJSON(data []byte) error {
	b, err := json.Marshal(patientSchema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("patient.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("patient.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("patient context does not match schema: %w", err)
	}
	return nil
}

// Summary renders the demographic line used by the prompt header and the
// report. Missing fields render as a dash.
func (p PatientContext) Summary() string {
	return fmt.Sprintf("%s, age %s, sex: %s", orDash(p.Name), orDash(p.Age), orDash(p.Sex))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
