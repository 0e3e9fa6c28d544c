// Package storage uploads images and returns the URL they are displayed from.
package storage

import (
	"context"
	"io"
)

type ImageHost interface {
	Upload(ctx context.Context, name string, file io.Reader, contentType string) (string, error)
}
