package util

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath expands a leading ~ and cleans the result. Paths that cannot
// be expanded are returned cleaned but otherwise unchanged.
func ExpandPath(p string) string {
	if p == "" {
		return ""
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return filepath.Clean(expanded)
}

// AbsPath expands p and makes it absolute.
func AbsPath(p string) (string, error) {
	return filepath.Abs(ExpandPath(p))
}
