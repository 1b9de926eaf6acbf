package records

import (
	"fmt"
	"maps"
	"strings"
)

// Field names produced by the web part data source.
const (
	FieldProperties             = "properties"
	FieldServerProcessedContent = "serverProcessedContent"
	FieldInnerHTML              = "innerHtml"
)

const keySeparator = "|"

// Key identifies a record inside a loaded batch: site, page and web part.
type Key struct {
	ContainerID string
	ParentID    string
	RecordID    string
}

// ParseKey parses the "container|parent|record" form produced by Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, keySeparator)
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("%w: malformed record key %q", ErrInvalidArgument, s)
	}
	k := Key{ContainerID: parts[0], ParentID: parts[1], RecordID: parts[2]}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

func (k Key) String() string {
	return k.ContainerID + keySeparator + k.ParentID + keySeparator + k.RecordID
}

// Validate reports a missing identifier component.
func (k Key) Validate() error {
	switch {
	case k.ContainerID == "":
		return fmt.Errorf("%w: missing container id", ErrInvalidArgument)
	case k.ParentID == "":
		return fmt.Errorf("%w: missing parent id", ErrInvalidArgument)
	case k.RecordID == "":
		return fmt.Errorf("%w: missing record id", ErrInvalidArgument)
	}
	return nil
}

// Metadata is descriptive, read-only information shown next to a record.
type Metadata struct {
	Title        string
	Type         string
	PageURL      string
	PageName     string
	ContainerURL string
}

// Record is one remotely editable entity. Structured field values are kept as JSON text.
type Record struct {
	Key    Key
	Meta   Metadata
	Fields map[string]string

	// Raw is the source document the record was built from; writers use it to compose updates.
	Raw []byte
}

// Clone returns a deep copy so callers cannot mutate store state through it.
func (r Record) Clone() Record {
	out := r
	out.Fields = maps.Clone(r.Fields)
	if out.Fields == nil {
		out.Fields = map[string]string{}
	}
	if r.Raw != nil {
		out.Raw = append([]byte(nil), r.Raw...)
	}
	return out
}

// DisplayName is the best human label for status messages.
func (r Record) DisplayName() string {
	if r.Meta.Title != "" {
		return r.Meta.Title
	}
	return r.Key.RecordID
}

func formatSummary(succeeded, failed int) string {
	return fmt.Sprintf("Saved %d record(s), %d failed.", succeeded, failed)
}
