// Package apperr defines the application-layer error shape shared by all
// use-case services. The HTTP adapter maps Status/Code onto the wire; services
// never import transport types.
package apperr

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}
