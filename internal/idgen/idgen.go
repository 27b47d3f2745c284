// Package idgen mints the short random identifiers ringview hands out:
// console connection ids on the feed server and export ids stamped into
// case archives.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Lowercase plus digits keeps ids double-click selectable in terminals.
const (
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	length   = 12
)

// NewConsoleID identifies one console connection on the feed server.
func NewConsoleID() (string, error) { return New("con") }

// NewExportID identifies one archive export run.
func NewExportID() (string, error) { return New("exp") }

// New returns "<kind>-<random>" with 12 random characters.
func New(kind string) (string, error) {
	id, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return kind + "-" + id, nil
}
