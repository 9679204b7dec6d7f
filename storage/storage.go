// Package storage holds uploaded files: answer files, form media and logos.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/mbolis/quick-forms/config"
)

// ErrExists is returned by Upload when the key is already taken.
var ErrExists = errors.New("storage: object already exists")

// Bucket is a flat namespace of public objects.
type Bucket interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PublicURL(key string) string
	Remove(ctx context.Context, keys ...string) error
}

// Open picks the OSS bucket when one is configured, otherwise a directory
// bucket whose files are served from <public-url>/files/.
func Open(cfg config.Config) (Bucket, error) {
	if cfg.OSS.Enabled() {
		return NewOSSBucket(cfg.OSS)
	}
	return NewDirBucket(cfg.StorageDir, cfg.PublicURL+"/files")
}

// MediaKey names a media upload: <user>/<form>/<uuid><ext>.
func MediaKey(userID, formID, ext string) string {
	return path.Join(userID, formID, newID()+cleanExt(ext))
}

// LogoKey names a form logo: <user>/<form>/logo_<uuid><ext>.
func LogoKey(userID, formID, ext string) string {
	return path.Join(userID, formID, "logo_"+newID()+cleanExt(ext))
}

// AnswerKey names a file answer: responses/<form>/<response>/<question>_<uuid><ext>.
func AnswerKey(formID, responseID, questionID, ext string) string {
	return path.Join("responses", formID, responseID, questionID+"_"+newID()+cleanExt(ext))
}

func newID() string {
	return uuid.Must(uuid.NewV4()).String()
}

func cleanExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	// keep keys path-safe
	if strings.ContainsAny(ext[1:], "./\\") {
		return ""
	}
	return ext
}
