// Package model defines the core domain models used throughout the application.
package model

// Row is an arbitrary string-keyed record parsed from a tabular file.
type Row map[string]string

// SourceRecord is a row from the source file, augmented with normalized
// matching fields at load time. The normalized fields are immutable once set.
type SourceRecord struct {
	Row                 Row    `json:"row,omitempty"`
	ID                  string `json:"id"`
	Make                string `json:"make"`  // original make column value
	Model               string `json:"model"` // original model column value
	NormalizedMake      string `json:"normalizedMake"`
	NormalizedModel     string `json:"normalizedModel"`
	NormalizedBaseModel string `json:"normalizedBaseModel"`
}

// ReferenceRecord is a row from the reference file, augmented analogously,
// plus the auxiliary code column values keyed by original column name.
type ReferenceRecord struct {
	Row                 Row
	Codes               map[string]string
	ID                  string
	Make                string
	Model               string
	NormalizedMake      string
	NormalizedModel     string
	NormalizedBaseModel string
}

// SourceColumns identifies the make/model columns in the source file plus
// any extra columns to carry through to the output.
type SourceColumns struct {
	Make          string
	Model         string
	OutputColumns []string
}

// ReferenceColumns identifies the make/model columns in the reference file
// plus the auxiliary code columns.
type ReferenceColumns struct {
	Make  string
	Model string
	Codes []string
}
