// Package template implements the Packer JSON template object model: typed
// build-agent records, the per-category type registries, template-reference
// helpers, and the Template aggregate that validates, serializes, and
// persists the document.
package template

import (
	"bytes"
	"encoding/json"

	"github.com/forgelab/packforge/internal/errors"
)

// Record is a single build agent (builder, provisioner, or post-processor):
// a fixed "type" discriminator plus a freeform field bag. Field insertion
// order is preserved through serialization, with "type" always first.
type Record struct {
	recordType string
	keys       []string
	values     map[string]any
}

func newRecord(recordType string) *Record {
	return &Record{
		recordType: recordType,
		values:     make(map[string]any),
	}
}

// Type returns the discriminator the record was created with.
func (r *Record) Type() string {
	return r.recordType
}

// Set stores value under key, overwriting silently. A key set for the first
// time is appended to the field order; overwriting keeps the original slot.
func (r *Record) Set(key string, value any) *Record {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

// Get returns the value stored under key and whether it is present.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of fields set on the record, excluding "type".
func (r *Record) Len() int {
	return len(r.keys)
}

// MarshalJSON encodes the record as a JSON object with "type" first and the
// remaining fields in the order they were set.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	if err := writeJSONValue(&buf, r.recordType); err != nil {
		return nil, err
	}
	for _, key := range r.keys {
		buf.WriteByte(',')
		if err := writeJSONValue(&buf, key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONValue(&buf, r.values[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.InternalError("field value is not JSON-representable", err)
	}
	buf.Write(data)
	return nil
}
