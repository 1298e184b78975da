// Package snapshot defines the travel-warnings document written by a run and
// reads it back for the viewer commands.
package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
)

// ErrorCode defines error types for snapshot persistence
type ErrorCode string

const (
	ErrSnapshotNotFound ErrorCode = "SnapshotNotFound"
	ErrInvalidSnapshot  ErrorCode = "InvalidSnapshot"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// DefaultPath is where a run writes its document unless told otherwise.
const DefaultPath = "clean.json"

// Entry is the normalized advisory for one country.
type Entry struct {
	// WarningLevels is the resolved level code, or the raw picture name when unmapped.
	// Nil when the record had no picture name.
	WarningLevels *string `json:"WarningLevels"`

	// Details is the collector's details blob, passed through untouched.
	Details any `json:"Details"`

	// URL links to the full advisory page.
	URL *string `json:"URL"`

	HebrewName  string `json:"HebrewName"`
	EnglishName string `json:"EnglishName"`
}

// Document is the whole snapshot, keyed by country code.
type Document struct {
	Countries map[string]Entry `json:"countries"`

	// Timestamp is when the records were transformed, in Unix seconds.
	Timestamp int64 `json:"timestamp"`
}

// Time returns the timestamp as a time.Time.
func (d Document) Time() time.Time {
	return time.Unix(d.Timestamp, 0)
}

// Codes returns the country codes in sorted order.
func (d Document) Codes() []string {
	codes := lo.Keys(d.Countries)
	sort.Strings(codes)
	return codes
}

// Encode renders the document as indented JSON with non-ASCII and HTML characters
// left unescaped.
func Encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, failure.Wrap(err)
	}
	return buf.Bytes(), nil
}

// Write encodes doc and replaces the file at path in one write.
// Nothing touches the file if encoding fails.
func Write(path string, doc Document) error {
	b, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return failure.Wrap(err, failure.Context{"path": path})
	}
	return nil
}

// Read loads a document written by Write.
func Read(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, failure.New(ErrSnapshotNotFound,
				failure.Message("Snapshot file not found"),
				failure.Context{"path": path},
			)
		}
		return Document{}, failure.Wrap(err)
	}

	doc, err := Decode(b)
	if err != nil {
		return Document{}, failure.Wrap(err, failure.Context{"path": path})
	}
	return doc, nil
}

// Decode parses a document produced by Encode.
func Decode(b []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, failure.Wrap(err, failure.WithCode(ErrInvalidSnapshot),
			failure.Message("Snapshot is not valid JSON"),
		)
	}
	if doc.Countries == nil {
		doc.Countries = map[string]Entry{}
	}
	return doc, nil
}
