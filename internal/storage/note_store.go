// ABOUTME: Interface definition for the local note space.
// ABOUTME: Defines reading notes, recording share routes, and resolving attachments.
package storage

import (
	"github.com/2389-research/ghostpost/internal/models"
)

// NoteStore defines operations on locally authored notes.
type NoteStore interface {
	// Read loads a note by name, parsing its frontmatter.
	Read(name string) (*models.Note, error)

	// SetShare records a ghost share route in the note's $share list,
	// replacing any earlier ghost route and keeping everything else.
	SetShare(name string, route models.Route) error

	// ReadAttachment returns the bytes of a file referenced from the note.
	ReadAttachment(name, ref string) ([]byte, error)

	// List returns every note name, sorted.
	List() ([]string, error)
}
