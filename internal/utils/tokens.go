package utils

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// GenerateInviteToken returns a new random invite token.
func GenerateInviteToken() string {
	return uuid.NewString()
}

// ObjectPath builds a collision-free blob path for an uploaded file.
func ObjectPath(folder, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '?', '#', '%':
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return path.Join(folder, uuid.NewString()+"-"+name)
}
