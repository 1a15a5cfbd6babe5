package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelab/packforge/internal/errors"
	"github.com/forgelab/packforge/internal/template"
)

const sampleDefinition = `
output: ./build/template.json
variables:
  iso_url: http://example.com/ubuntu.iso
  iso_checksum: sha256:abc123
builders:
  - type: virtualbox-iso
    iso_url: !user iso_url
    iso_checksum: !user iso_checksum
    headless: true
    cpus: 2
provisioners:
  - type: shell
    inline:
      - echo provisioning
  - type: file
    source: ./files/motd
    destination: /etc/motd
post-processors:
  - type: vagrant
    output: !builtin BuildName
`

func TestParseSampleDefinition(t *testing.T) {
	def, err := Parse([]byte(sampleDefinition))
	require.NoError(t, err)

	assert.Equal(t, "./build/template.json", def.Output)
	require.Len(t, def.Variables, 2)
	assert.Equal(t, Variable{Name: "iso_url", Value: "http://example.com/ubuntu.iso"}, def.Variables[0])
	require.Len(t, def.Builders, 1)
	assert.Equal(t, "virtualbox-iso", def.Builders[0].Type)
	require.Len(t, def.Provisioners, 2)
	require.Len(t, def.PostProcessors, 1)
}

func TestDefinitionTemplateSerialization(t *testing.T) {
	def, err := Parse([]byte(sampleDefinition))
	require.NoError(t, err)

	tpl, err := def.Template("")
	require.NoError(t, err)
	assert.Equal(t, "./build/template.json", tpl.Path())

	data, err := tpl.Marshal(template.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t,
		`{"variables":{"iso_url":"http://example.com/ubuntu.iso","iso_checksum":"sha256:abc123"},`+
			`"builders":[{"type":"virtualbox-iso","iso_url":"{{user `+"`iso_url`"+`}}","iso_checksum":"{{user `+"`iso_checksum`"+`}}","headless":true,"cpus":2}],`+
			`"provisioners":[{"type":"shell","inline":["echo provisioning"]},{"type":"file","source":"./files/motd","destination":"/etc/motd"}],`+
			`"post-processors":[{"type":"vagrant","output":"{{ .BuildName }}"}]}`,
		string(data))
}

func TestDefinitionTemplateOutputOverride(t *testing.T) {
	def, err := Parse([]byte("builders:\n  - type: \"null\"\n"))
	require.NoError(t, err)

	tpl, err := def.Template("/tmp/override.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.json", tpl.Path())

	tpl, err = def.Template("")
	require.NoError(t, err)
	assert.Equal(t, "template.json", tpl.Path())
}

func TestDefinitionEnvReference(t *testing.T) {
	src := `
builders:
  - type: amazon-ebs
    access_key: !env AWS_ACCESS_KEY_ID
`
	def, err := Parse([]byte(src))
	require.NoError(t, err)

	tpl, err := def.Template("t.json")
	require.NoError(t, err)

	rec := tpl.Builders()[0]
	v, ok := rec.Get("access_key")
	require.True(t, ok)
	assert.Equal(t, "{{env `AWS_ACCESS_KEY_ID`}}", v)
}

func TestDefinitionUserReferenceUndeclared(t *testing.T) {
	src := `
builders:
  - type: amazon-ebs
    region: !user region
`
	def, err := Parse([]byte(src))
	require.NoError(t, err)

	_, err = def.Template("t.json")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryVariable))
}

func TestDefinitionUnknownBuilderType(t *testing.T) {
	src := `
builders:
  - type: no-such-builder
`
	def, err := Parse([]byte(src))
	require.NoError(t, err)

	_, err = def.Template("t.json")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryTemplate))
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"sequence root", "- a\n- b\n"},
		{"unknown key", "builder: []\n"},
		{"agent without type", "builders:\n  - iso_url: x\n"},
		{"agents not a sequence", "builders:\n  type: shell\n"},
		{"variables not a mapping", "variables:\n  - foo\n"},
		{"variable value not scalar", "variables:\n  foo: [1]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDefinition), 0o644))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, def.Builders, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfig))
}
