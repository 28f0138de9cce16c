/*
Copyright © 2026 the VICpy authors.
This file is part of VICpy.

VICpy is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VICpy is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VICpy.  If not, see <http://www.gnu.org/licenses/>.
*/

package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/go-cloud/blob"
)

// permanentError is an error that repeating the operation will not fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

// IsPermanent returns whether err was returned by Download or Upload for
// a malformed path, a bucket that cannot be opened, a blob that does not
// exist or a local file that cannot be read. Retrying will not succeed.
func IsPermanent(err error) bool {
	_, ok := err.(*permanentError)
	return ok
}

// Download copies the blob at path ('provider://bucket/key') into
// directory dir and returns the location of the local copy.
func Download(ctx context.Context, path, dir string) (string, error) {
	bucketName, key, err := SplitPath(path)
	if err != nil {
		return "", &permanentError{err}
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return "", &permanentError{err}
	}
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		werr := fmt.Errorf("cloud: reading blob %s: %v", path, err)
		if blob.IsNotExist(err) {
			return "", &permanentError{werr}
		}
		return "", werr
	}
	defer r.Close()

	local := filepath.Join(dir, filepath.Base(key))
	w, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("cloud: creating file for download: %v", err)
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("cloud: downloading blob %s: %v", path, err)
	}
	if err = w.Close(); err != nil {
		return "", fmt.Errorf("cloud: downloading blob %s: %v", path, err)
	}
	return local, nil
}

// Upload copies the local file to the blob at path ('provider://bucket/key').
func Upload(ctx context.Context, local, path string) error {
	bucketName, key, err := SplitPath(path)
	if err != nil {
		return &permanentError{err}
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return &permanentError{err}
	}
	r, err := os.Open(local)
	if err != nil {
		return &permanentError{fmt.Errorf("cloud: opening file '%s' for upload: %v", local, err)}
	}
	defer r.Close()
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("cloud: creating writer for blob %s: %v", path, err)
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("cloud: uploading '%s' to %s: %v", local, path, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("cloud: writing blob %s: %v", path, err)
	}
	return nil
}
