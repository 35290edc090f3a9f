package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Response is the envelope returned by every account endpoint, errors included.
type Response struct {
	Time    string         `json:"time"`
	Code    int            `json:"code"`
	Path    string         `json:"path"`
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// NewResponse builds the envelope for the current request.
func NewResponse(c echo.Context, code int, message string) Response {
	return Response{
		Time:    time.Now().UTC().Format(time.RFC3339),
		Code:    code,
		Path:    c.Request().URL.Path,
		Status:  statusName(code),
		Message: message,
	}
}

// statusName renders 404 as "NOT_FOUND".
func statusName(code int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
}
