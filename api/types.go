//go:build linux

package api

import (
	"github.com/labstack/echo/v4"

	"github.com/kelpdock/nsnet/ifaddrs"
)

const (
	JSON_PRETTY_INDENT string = "    "
)

type rootResponse struct {
	ApiRoutes []*echo.Route
}

type interfacesResponse struct {
	// Scoped reports whether the kernel honoured namespace scoping for
	// this enumeration; for the server's own namespace it is true by
	// construction.
	Scoped     bool                `json:"scoped"`
	Interfaces []*ifaddrs.Interface `json:"interfaces"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type extendedContext struct {
	echo.Context
	apiRoutes []*echo.Route
	conf      *Config
}
