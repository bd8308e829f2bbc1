package errors

import "net/http"

// HTTPStatus maps an error to the status code the gateway answers with.
// Bad input is the caller's fault; everything else is a server-side failure.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if GetCategory(err) == CategoryConfig {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
