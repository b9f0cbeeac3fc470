//go:build cgo || windows

package service

import (
	// ODBC instance driver; its unix implementation requires cgo.
	_ "github.com/alexbrainman/odbc"
)
