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
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/params.nc":   true,
		"s3://bucket/params.nc":   true,
		"file://bucket/params.nc": true,
		"/data/params.nc":         false,
		"http://host/params.nc":   false,
	} {
		if got := IsBlob(path); got != want {
			t.Errorf("%s: got %v, want %v", path, got, want)
		}
	}
}

func TestSplitPath(t *testing.T) {
	bucket, key, err := SplitPath("gs://vic-params/livneh/params.nc")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "gs://vic-params" || key != "livneh/params.nc" {
		t.Errorf("got %q, %q", bucket, key)
	}
	for _, path := range []string{"gs://vic-params", "params.nc", "s3:///params.nc"} {
		if _, _, err := SplitPath(path); err == nil {
			t.Errorf("%s: expected an error", path)
		}
	}
}

func TestOpenBucketInvalidProvider(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Error("expected an error")
	}
}

func TestUploadDownload(t *testing.T) {
	// File buckets are relative to the working directory.
	bucketDir, err := ioutil.TempDir(".", "testbucket")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucketDir)
	localDir, err := ioutil.TempDir("", "cloud")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(localDir)

	want := []byte("CDF\x01 not really a netCDF file")
	local := filepath.Join(localDir, "params.nc")
	if err := ioutil.WriteFile(local, want, 0644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	path := "file://" + filepath.Base(bucketDir) + "/params.nc"
	if err := Upload(ctx, local, path); err != nil {
		t.Fatal(err)
	}

	downloadDir := filepath.Join(localDir, "download")
	if err := os.Mkdir(downloadDir, 0755); err != nil {
		t.Fatal(err)
	}
	got, err := Download(ctx, path, downloadDir)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(downloadDir, "params.nc") {
		t.Errorf("downloaded to %s", got)
	}
	b, err := ioutil.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, want) {
		t.Errorf("got %q, want %q", b, want)
	}

	t.Run("missing blob", func(t *testing.T) {
		_, err := Download(ctx, "file://"+filepath.Base(bucketDir)+"/missing.nc", downloadDir)
		if !IsPermanent(err) {
			t.Errorf("want a permanent error, have %v", err)
		}
	})
	t.Run("missing bucket", func(t *testing.T) {
		_, err := Download(ctx, "file://"+filepath.Base(bucketDir)+"-missing/params.nc", downloadDir)
		if !IsPermanent(err) {
			t.Errorf("want a permanent error, have %v", err)
		}
		err = Upload(ctx, local, "file://"+filepath.Base(bucketDir)+"-missing/params.nc")
		if !IsPermanent(err) {
			t.Errorf("want a permanent error, have %v", err)
		}
	})
	t.Run("missing local file", func(t *testing.T) {
		err := Upload(ctx, filepath.Join(localDir, "missing.nc"), path)
		if !IsPermanent(err) {
			t.Errorf("want a permanent error, have %v", err)
		}
	})
}
