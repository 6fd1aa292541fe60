package models

import (
	"encoding/json"
	"time"
)

// Document is a persisted request document. Data holds the encoded tree
// and is left nil by list operations.
type Document struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id,omitempty" db:"owner_id"` // Empty when created without auth
	Name      string    `json:"name" db:"name"`                         // Root folder name at last save
	Data      []byte    `json:"-" db:"data"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// History describes the undo state of an open document.
type History struct {
	CanUndo   bool   `json:"can_undo"`
	CanRedo   bool   `json:"can_redo"`
	UndoName  string `json:"undo_name,omitempty"`
	RedoName  string `json:"redo_name,omitempty"`
	UndoTitle string `json:"undo_title"` // Menu label, e.g. "Undo Create Request"
	RedoTitle string `json:"redo_title"`
}

// DocumentState is an open document as returned by the API: metadata, the
// whole tree and the undo state.
type DocumentState struct {
	Document
	Root    json.Marshaler `json:"root"`
	History History        `json:"history"`
	Dirty   bool           `json:"dirty"` // Unsaved changes
	Seq     uint64         `json:"seq"`   // Last change journal sequence number
}
