package template

import "fmt"

// Template-reference helpers. The tokens are resolved by packer at its own
// execution time; this package only produces the syntax.

// UserVariable renders the token packer resolves to a user variable value.
func UserVariable(name string) string {
	return fmt.Sprintf("{{user `%s`}}", name)
}

// EnvVariable renders the token packer resolves from the named environment
// variable. The variable does not need to exist when the template is built.
func EnvVariable(name string) string {
	return fmt.Sprintf("{{env `%s`}}", name)
}

// Builtin renders the token for one of packer's built-in template variables,
// e.g. Builtin("HTTPIP"). The vocabulary is owned by packer, so no existence
// check is possible here.
func Builtin(name string) string {
	return fmt.Sprintf("{{ .%s }}", name)
}
