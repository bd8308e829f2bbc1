package errors

// Convenience functions for the error taxonomy of a documentation attempt.

func ConfigError(message string) *YoumuError {
	return New(CategoryConfig, SeverityError, message)
}

func WrapConfig(cause error, message string) *YoumuError {
	return Wrap(cause, CategoryConfig, SeverityError, message)
}

func ConfigRequired(field string) *YoumuError {
	return New(CategoryConfig, SeverityError, field+" is required").
		WithContext("field", field)
}

// Resolution errors

func NotFound(name string) *YoumuError {
	return New(CategoryResolution, SeverityError, "unable to find package "+name).
		WithReason(ReasonNotFound).
		WithContext("package", name)
}

func ConstraintUnsatisfiable(name, req string) *YoumuError {
	return New(CategoryResolution, SeverityError, "unable to find specified version").
		WithReason(ReasonConstraintUnsatisfiable).
		WithContext("package", name).
		WithContext("version_req", req)
}

// Fetch errors

func FetchError(url string, cause error) *YoumuError {
	return WrapRetryable(cause, CategoryFetch, SeverityError, "fetch failed").
		WithContext("url", url)
}

// Workspace errors

func WorkspaceError(operation string, cause error) *YoumuError {
	return Wrap(cause, CategoryWorkspace, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

// Build errors

func BuildError(cause error) *YoumuError {
	return Wrap(cause, CategoryBuild, SeverityError, "build failed")
}

// Internal errors

func InternalError(message string, cause error) *YoumuError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
