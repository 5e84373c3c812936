//go:build js || wasm

package notevoyager

import "errors"

// NewSQLiteStorage is unavailable in the browser; pass WithStorage instead.
func NewSQLiteStorage(dbPath string, log Logger) (Storage, error) {
	return nil, errors.New("sqlite storage is not available in js/wasm builds")
}
