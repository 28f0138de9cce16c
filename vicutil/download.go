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
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/orianac/VICpy/cloud"
	"github.com/sirupsen/logrus"
)

// newBackOff returns the retry schedule for downloads and uploads.
var newBackOff = func() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 8)
}

// retry runs op until it succeeds, returns a permanent error, or the
// retry schedule is exhausted. Permanent blob storage errors are not
// retried.
func retry(ctx context.Context, log logrus.FieldLogger, op backoff.Operation) error {
	return backoff.RetryNotify(
		func() error {
			err := op()
			if cloud.IsPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		backoff.WithContext(newBackOff(), ctx),
		func(err error, d time.Duration) {
			log.WithError(err).Warnf("retrying in %v", d)
		},
	)
}

// isHTTP returns whether path is an http or https URL.
func isHTTP(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// maybeDownload checks if the input is an existing local file.
// If not, and it is a URL or a blob, it downloads the file into a new
// subdirectory of dir and returns the path to the downloaded file.
// Other paths are returned unchanged.
func maybeDownload(ctx context.Context, path, dir string, log logrus.FieldLogger) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if !isHTTP(path) && !cloud.IsBlob(path) {
		return path, nil
	}
	dir, err := ioutil.TempDir(dir, "download")
	if err != nil {
		return "", fmt.Errorf("vicutil: creating download directory: %v", err)
	}
	var local string
	switch {
	case isHTTP(path):
		log.WithField("url", path).Info("downloading")
		err := retry(ctx, log, func() error {
			var err error
			local, err = downloadHTTP(ctx, path, dir)
			return err
		})
		if err != nil {
			return "", err
		}
	case cloud.IsBlob(path):
		log.WithField("blob", path).Info("downloading")
		err := retry(ctx, log, func() error {
			var err error
			local, err = cloud.Download(ctx, path, dir)
			return err
		})
		if err != nil {
			return "", err
		}
	}
	return local, nil
}

// downloadHTTP downloads a file from the specified URL into dir and returns
// the path to the downloaded file. Client errors are not retried.
func downloadHTTP(ctx context.Context, url, dir string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("vicutil: downloading %s: %v", url, err))
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("vicutil: downloading %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("vicutil: downloading %s: %s", url, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	name := path.Base(req.URL.Path)
	if name == "/" || name == "." {
		name = "download.nc"
	}
	local := filepath.Join(dir, name)
	w, err := os.Create(local)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("vicutil: creating file for download: %v", err))
	}
	if _, err = io.Copy(w, resp.Body); err != nil {
		w.Close()
		return "", fmt.Errorf("vicutil: downloading %s: %v", url, err)
	}
	if err = w.Close(); err != nil {
		return "", backoff.Permanent(fmt.Errorf("vicutil: writing download: %v", err))
	}
	return local, nil
}
