// Package storage implements storage-related functionality.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.Router = (*KeyRouter)(nil)

// DefaultObjectName is the object base name used when none is configured.
const DefaultObjectName = "employees"

// KeyRouter builds flat or prefixed object keys for encoded files.
type KeyRouter struct {
	basePath   string
	objectName string
}

// NewRouter creates a new key router.
func NewRouter(basePath, objectName string) *KeyRouter {
	if objectName == "" {
		objectName = DefaultObjectName
	}
	return &KeyRouter{
		basePath:   strings.Trim(basePath, "/"),
		objectName: objectName,
	}
}

// Key returns the object key for the format.
// Format: [basePath/]objectName.ext, e.g. "employees.json".
func (r *KeyRouter) Key(format employee.Format) string {
	name := r.objectName + format.FileExtension()
	if r.basePath == "" {
		return name
	}
	return path.Join(r.basePath, name)
}

// BucketName returns prefix followed by the date in YYYYMMDD form.
func BucketName(prefix string, date time.Time) string {
	return fmt.Sprintf("%s%s", prefix, date.Format("20060102"))
}

// EnsureBucket creates the bucket if it does not already exist.
// It reports whether the bucket was created. A concurrent creator is not
// guarded against.
func EnsureBucket(ctx context.Context, store storage.Store, bucket string) (bool, error) {
	exists, err := store.BucketExists(ctx, bucket)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := store.CreateBucket(ctx, bucket); err != nil {
		return false, err
	}
	return true, nil
}
