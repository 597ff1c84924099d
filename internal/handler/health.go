package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Root answers GET / with a short banner so a browser pointed at the
// API sees that it is up.
func Root(c echo.Context) error {
	return c.String(http.StatusOK, "ExcelLense API is running")
}

// Health is a health-check endpoint for load balancers and monitoring.
// It returns a plain text "ok" with status 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
