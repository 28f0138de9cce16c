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

package vicutil

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/orianac/VICpy/cloud"
	"github.com/sirupsen/logrus"
)

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	dir   string
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a location in the uploader's
// directory is returned, and the file will be uploaded to blob storage
// when the uploadOutput method is run.
func (u *uploader) maybeUpload(path string) (string, error) {
	if isHTTP(path) {
		return "", fmt.Errorf("vicutil: cannot write output to URL %s", path)
	}
	if !cloud.IsBlob(path) {
		return path, nil
	}
	if _, _, err := cloud.SplitPath(path); err != nil {
		return "", err
	}
	local := filepath.Join(u.dir, "upload-"+filepath.Base(path))
	u.files = append(u.files, [2]string{local, path})
	return local, nil
}

// uploadOutput uploads the files registered by maybeUpload.
func (u *uploader) uploadOutput(ctx context.Context, log logrus.FieldLogger) error {
	for _, f := range u.files {
		local, remote := f[0], f[1]
		log.WithField("blob", remote).Info("uploading")
		err := retry(ctx, log, func() error {
			return cloud.Upload(ctx, local, remote)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
