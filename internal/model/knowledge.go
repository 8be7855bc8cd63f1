package model

import "fmt"

// KnowledgeKey identifies a knowledge-base bucket: the normalized source
// make plus the normalized source base model, joined with "|".
func KnowledgeKey(make, baseModel string) string {
	return make + "|" + baseModel
}

// KnowledgeEntry is one previously confirmed mapping for a knowledge key.
// Make and Model hold normalized reference identity (model is the base
// model, so one key may legitimately map to several entries).
type KnowledgeEntry struct {
	Make  string `json:"make"`
	Model string `json:"model"`
}

// Validate checks that the entry carries a usable identity.
func (e KnowledgeEntry) Validate() error {
	if e.Make == "" || e.Model == "" {
		return fmt.Errorf("knowledge entry missing make or model")
	}
	return nil
}
