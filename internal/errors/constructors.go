package errors

// Convenience functions for common error patterns

// Configuration and input errors

func DefinitionNotFound(path string) *ForgeError {
	return New(CategoryConfig, SeverityFatal, "build definition file not found").
		WithContext("path", path)
}

func DefinitionInvalid(path string, cause error) *ForgeError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "build definition is not valid").
		WithContext("path", path)
}

func ValidationFailed(reason string) *ForgeError {
	return New(CategoryValidation, SeverityFatal, "template validation failed").
		WithContext("reason", reason)
}

// Template model errors

func UnknownType(category, tag string) *ForgeError {
	return New(CategoryTemplate, SeverityFatal, "unknown "+category+" type").
		WithContext("category", category).
		WithContext("tag", tag)
}

func UndefinedVariable(name string) *ForgeError {
	return New(CategoryVariable, SeverityFatal, "variable referenced before being added").
		WithContext("name", name)
}

func UnsupportedFormat(format string) *ForgeError {
	return New(CategoryFormat, SeverityFatal, "unsupported serialization format").
		WithContext("format", format)
}

// Persistence errors

func PersistFailed(path string, cause error) *ForgeError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "writing template failed").
		WithContext("path", path)
}

// External tool errors

func PackerFailed(exitCode int, stderr string) *ForgeError {
	return New(CategoryPacker, SeverityFatal, "packer exited with non-zero status").
		WithContext("exit_code", exitCode).
		WithContext("stderr", stderr)
}

func PackerInvocation(bin string, cause error) *ForgeError {
	return Wrap(cause, CategoryPacker, SeverityFatal, "packer could not be invoked").
		WithContext("binary", bin)
}

// Internal errors

func InternalError(message string, cause error) *ForgeError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
