/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ObjectInfo describes a remote object returned by List.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore abstracts the S3-compatible operations the kiosk needs.
type ObjectStore interface {
	// List returns objects under prefix, newest first.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Head returns metadata for a single key.
	Head(ctx context.Context, key string) (ObjectInfo, error)
	// Get downloads key to localPath, creating or truncating the file.
	Get(ctx context.Context, key, localPath string) error
	// Copy performs a server-side copy from srcKey to dstKey.
	Copy(ctx context.Context, srcKey, dstKey string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ErrNotFound marks transfer failures caused by a missing remote object,
// as opposed to transient network or service errors.
var ErrNotFound = errors.New("object not found")

// NotFoundError wraps a missing-key failure so callers can stop retrying.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s", e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsNotFound reports whether err was caused by a missing remote object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDir reports whether key is a pseudo-directory marker.
func IsDir(key string) bool {
	return strings.HasSuffix(key, "/")
}
