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
	"os"

	"github.com/orianac/VICpy/compare"
	"github.com/orianac/VICpy/vicparam"
	"github.com/sirupsen/logrus"
)

// ConvertFile converts the ARNO baseflow parameters in the parameter file
// at input to NIJSSEN2001 parameters and writes the converted file to
// output. Either location may be a local path or a blob, and input may
// also be an http(s) URL. If output is empty the input file is replaced.
func ConvertFile(ctx context.Context, input, output string, policy vicparam.InvalidPolicy, log logrus.FieldLogger) (*vicparam.Summary, error) {
	if output == "" {
		if isHTTP(input) {
			return nil, fmt.Errorf("vicutil: an output location is required when the input is a URL")
		}
		output = input
	}
	dir, err := ioutil.TempDir("", "vicparam")
	if err != nil {
		return nil, fmt.Errorf("vicutil: creating temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	local, err := maybeDownload(ctx, input, dir, log)
	if err != nil {
		return nil, err
	}
	u := &uploader{dir: dir}
	localOut, err := u.maybeUpload(output)
	if err != nil {
		return nil, err
	}

	d, err := vicparam.Open(local)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	c := &vicparam.Converter{Policy: policy, Log: log}
	s, err := c.Convert(d, localOut)
	if err != nil {
		return nil, err
	}
	if err := u.uploadOutput(ctx, log); err != nil {
		return nil, err
	}
	return s, nil
}

// CompareConfig specifies a comparison of two parameter files.
type CompareConfig struct {
	// A and B are the locations of the files to compare.
	A, B string

	// TitleA and TitleB name the files in the output table. They default
	// to the file names without directories or extensions.
	TitleA, TitleB string

	// Domain is the location of a file with a 'mask' variable specifying
	// the active grid cells. If empty, the mask in A is used if there is one.
	Domain string

	// Ranges is the location of a TOML file with expected range overrides.
	Ranges string

	// Variables are the variables to compare; empty means the defaults.
	Variables []string
}

// CompareFiles compares two parameter files and writes a table of the
// results to w.
func CompareFiles(ctx context.Context, cfg CompareConfig, w io.Writer, log logrus.FieldLogger) error {
	dir, err := ioutil.TempDir("", "vicparam")
	if err != nil {
		return fmt.Errorf("vicutil: creating temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	open := func(path string) (*vicparam.Dataset, error) {
		local, err := maybeDownload(ctx, path, dir, log)
		if err != nil {
			return nil, err
		}
		return vicparam.Open(local)
	}
	a, err := open(cfg.A)
	if err != nil {
		return err
	}
	defer a.Close()
	b, err := open(cfg.B)
	if err != nil {
		return err
	}
	defer b.Close()

	maskSource := a
	if cfg.Domain != "" {
		domain, err := open(cfg.Domain)
		if err != nil {
			return err
		}
		defer domain.Close()
		maskSource = domain
	}
	mask, err := vicparam.DomainMask(maskSource)
	if err != nil {
		return err
	}

	o := compare.Options{Variables: cfg.Variables, Log: log}
	if cfg.Ranges != "" {
		local, err := maybeDownload(ctx, cfg.Ranges, dir, log)
		if err != nil {
			return err
		}
		f, err := os.Open(local)
		if err != nil {
			return fmt.Errorf("vicutil: opening ranges file: %v", err)
		}
		o.Ranges, err = compare.LoadRanges(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	results, err := compare.Compare(a, b, mask, o)
	if err != nil {
		return err
	}
	titleA, titleB := cfg.TitleA, cfg.TitleB
	if titleA == "" {
		titleA = compare.DefaultTitle(cfg.A)
	}
	if titleB == "" {
		titleB = compare.DefaultTitle(cfg.B)
	}
	return compare.WriteTable(w, titleA, titleB, results)
}

// writeOutput calls write with a writer for the file at path, which may
// be a blob, or with stdout when path is empty.
func writeOutput(ctx context.Context, path string, stdout io.Writer, log logrus.FieldLogger, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	dir, err := ioutil.TempDir("", "vicparam")
	if err != nil {
		return fmt.Errorf("vicutil: creating temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)
	u := &uploader{dir: dir}
	local, err := u.maybeUpload(path)
	if err != nil {
		return err
	}
	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("vicutil: creating output file: %v", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("vicutil: writing output file: %v", err)
	}
	return u.uploadOutput(ctx, log)
}
