//go:build linux

package api

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/kelpdock/nsnet/ifaddrs"
)

func handleRoot(c echo.Context) error {
	cc := c.(*extendedContext)
	return c.JSONPretty(http.StatusOK, &rootResponse{
		ApiRoutes: cc.apiRoutes,
	}, JSON_PRETTY_INDENT)
}

func handleInterfaces(c echo.Context) error {
	ifaces, _, err := ifaddrs.EnumerateDefault()
	if err != nil {
		return c.JSONPretty(http.StatusInternalServerError,
			&errorResponse{Error: err.Error()}, JSON_PRETTY_INDENT)
	}

	return c.JSONPretty(http.StatusOK, &interfacesResponse{
		Scoped:     true,
		Interfaces: ifaces,
	}, JSON_PRETTY_INDENT)
}

func handleInterface(c echo.Context) error {
	ifaces, _, err := ifaddrs.EnumerateDefault()
	if err != nil {
		return c.JSONPretty(http.StatusInternalServerError,
			&errorResponse{Error: err.Error()}, JSON_PRETTY_INDENT)
	}

	name := c.Param("name")
	for _, iface := range ifaces {
		if iface.Name == name {
			return c.JSONPretty(http.StatusOK, iface, JSON_PRETTY_INDENT)
		}
	}

	return c.JSONPretty(http.StatusNotFound,
		&errorResponse{Error: "no such interface: " + name}, JSON_PRETTY_INDENT)
}

func handleNamespaceInterfaces(c echo.Context) error {
	cc := c.(*extendedContext)

	ns := c.Param("ns")
	// A traversal in the namespace name must not escape the netns dir.
	if ns != filepath.Base(ns) || ns == "." || ns == ".." {
		return c.JSONPretty(http.StatusBadRequest,
			&errorResponse{Error: "invalid namespace name: " + ns}, JSON_PRETTY_INDENT)
	}

	ifaces, err := ifaddrs.EnumerateNamespace(filepath.Join(cc.conf.NetnsDir, ns))
	if err != nil {
		return c.JSONPretty(http.StatusInternalServerError,
			&errorResponse{Error: err.Error()}, JSON_PRETTY_INDENT)
	}

	return c.JSONPretty(http.StatusOK, &interfacesResponse{
		Scoped:     true,
		Interfaces: ifaces,
	}, JSON_PRETTY_INDENT)
}
