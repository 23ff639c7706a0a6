package provider

import (
	"sort"

	"github.com/mrlokans/symptomchecker/internal/schema"
)

// checkColumns rejects unknown columns and any attempt to write the row
// identifier. Keys are checked in sorted order so the reported column is
// stable.
func checkColumns(e schema.Entity, values Record) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == schema.IDColumn {
			return &ValidationError{Column: k, Reason: "is assigned by storage"}
		}
		if _, ok := e.Column(k); !ok {
			return &ValidationError{Column: k, Reason: "is not declared by " + string(e.Type)}
		}
	}
	return nil
}

// validateInsert requires a non-nil value for every required column, checked
// in declaration order. A missing required column is reported before any
// undeclared one.
func validateInsert(e schema.Entity, values Record) error {
	for _, name := range e.RequiredColumns() {
		if v, ok := values[name]; !ok || v == nil {
			return &ValidationError{Column: name, Reason: "is required"}
		}
	}
	return checkColumns(e, values)
}

// validateUpdate only checks required columns that are present in the
// payload: they may not be set to null.
func validateUpdate(e schema.Entity, values Record) error {
	if err := checkColumns(e, values); err != nil {
		return err
	}
	for _, name := range e.RequiredColumns() {
		if v, ok := values[name]; ok && v == nil {
			return &ValidationError{Column: name, Reason: "cannot be null"}
		}
	}
	return nil
}

func validateProjection(e schema.Entity, columns []string) error {
	for _, name := range columns {
		if _, ok := e.Column(name); !ok {
			return &ValidationError{Column: name, Reason: "is not declared by " + string(e.Type)}
		}
	}
	return nil
}
