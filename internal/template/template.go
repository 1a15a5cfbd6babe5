package template

import (
	"bytes"
	"os"

	"github.com/forgelab/packforge/internal/errors"
)

// Format selects a serialization encoding for Template.Marshal.
type Format string

// FormatJSON is the canonical packer template wire format. It is currently
// the only supported format; anything else yields a format error.
const FormatJSON Format = "json"

// Template is the aggregate root: ordered builder/provisioner/post-processor
// collections plus named variables, bound to the filesystem path the
// serialized document is written to. A Template is single-owner state; it is
// not safe for concurrent use.
type Template struct {
	path           string
	builders       []*Record
	provisioners   []*Record
	postProcessors []*Record
	varNames       []string
	varValues      map[string]string
}

// New returns an empty template that persists to path.
func New(path string) *Template {
	return &Template{
		path:      path,
		varValues: make(map[string]string),
	}
}

// Path returns the filesystem path WriteFile persists to.
func (t *Template) Path() string {
	return t.path
}

// AddBuilder creates a builder record for tag and appends it. The collection
// is untouched when the tag is unknown.
func (t *Template) AddBuilder(tag string) (*Record, error) {
	rec, err := builderRegistry.Create(tag)
	if err != nil {
		return nil, err
	}
	t.builders = append(t.builders, rec)
	return rec, nil
}

// AddProvisioner creates a provisioner record for tag and appends it.
func (t *Template) AddProvisioner(tag string) (*Record, error) {
	rec, err := provisionerRegistry.Create(tag)
	if err != nil {
		return nil, err
	}
	t.provisioners = append(t.provisioners, rec)
	return rec, nil
}

// AddPostProcessor creates a post-processor record for tag and appends it.
func (t *Template) AddPostProcessor(tag string) (*Record, error) {
	rec, err := postProcessorRegistry.Create(tag)
	if err != nil {
		return nil, err
	}
	t.postProcessors = append(t.postProcessors, rec)
	return rec, nil
}

// AddVariable inserts or overwrites a named variable. A new name is appended
// to the iteration order; an existing name keeps its position.
func (t *Template) AddVariable(name, value string) {
	if _, exists := t.varValues[name]; !exists {
		t.varNames = append(t.varNames, name)
	}
	t.varValues[name] = value
}

// Variable returns the user-variable reference token for name. The name must
// already have been added via AddVariable.
func (t *Template) Variable(name string) (string, error) {
	if _, exists := t.varValues[name]; !exists {
		return "", errors.UndefinedVariable(name)
	}
	return UserVariable(name), nil
}

// EnvVar returns the environment-variable reference token for name.
func (t *Template) EnvVar(name string) string {
	return EnvVariable(name)
}

// Macro returns the built-in template-variable token for name.
func (t *Template) Macro(name string) string {
	return Builtin(name)
}

// Builders returns the builder records in insertion order.
func (t *Template) Builders() []*Record { return t.builders }

// Provisioners returns the provisioner records in insertion order.
func (t *Template) Provisioners() []*Record { return t.provisioners }

// PostProcessors returns the post-processor records in insertion order.
func (t *Template) PostProcessors() []*Record { return t.postProcessors }

// Validate checks the structural precondition for a build: at least one
// builder. Per-record field completeness is packer's concern, not ours.
func (t *Template) Validate() error {
	if len(t.builders) == 0 {
		return errors.ValidationFailed("template requires at least one builder")
	}
	return nil
}

// Marshal produces the canonical template document. Output is deterministic:
// top-level keys are always variables, builders, provisioners,
// post-processors in that order, variables iterate in insertion order, and
// each record emits "type" first followed by its fields in set order.
func (t *Template) Marshal(format Format) ([]byte, error) {
	if format != FormatJSON {
		return nil, errors.UnsupportedFormat(string(format))
	}

	var buf bytes.Buffer
	buf.WriteString(`{"variables":{`)
	for i, name := range t.varNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONValue(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONValue(&buf, t.varValues[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`},"builders":`)
	if err := writeRecords(&buf, t.builders); err != nil {
		return nil, err
	}
	buf.WriteString(`,"provisioners":`)
	if err := writeRecords(&buf, t.provisioners); err != nil {
		return nil, err
	}
	buf.WriteString(`,"post-processors":`)
	if err := writeRecords(&buf, t.postProcessors); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeRecords(buf *bytes.Buffer, records []*Record) error {
	buf.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := rec.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return nil
}

// WriteFile serializes the template and writes it to its path, overwriting
// any existing file. Storage failures surface verbatim with no retry.
func (t *Template) WriteFile() error {
	data, err := t.Marshal(FormatJSON)
	if err != nil {
		return err
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return errors.PersistFailed(t.path, err)
	}
	return nil
}
