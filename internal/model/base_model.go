package model

import "github.com/google/uuid"

// ensureId assigns a time ordered v7 id so rows created in the same
// transaction still sort by creation when created_at ties.
func ensureId(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.Must(uuid.NewV7())
	}
}
