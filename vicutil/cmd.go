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

// Package vicutil contains the command-line interface for the VIC
// soil parameter tools.
package vicutil

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lnashier/viper"
	"github.com/orianac/VICpy/vicparam"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to vicparam.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log_level",
			usage: `
              log_level specifies the minimum level of log messages
              to print: one of debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "output",
			usage: `
              output specifies where to write the result. For convert,
              it is the converted parameter file and defaults to replacing
              the input file. For compare, it is the comparison table and
              defaults to standard output. Locations starting with
              'file://', 'gs://' or 's3://' are written to blob storage.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), compareCmd.Flags()},
		},
		{
			name: "on_invalid",
			usage: `
              on_invalid specifies what to do with grid cells whose
              parameters cannot be converted. 'abort' stops the conversion
              with an error, and 'mask' writes fill values for those cells
              and continues.`,
			defaultVal: "abort",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "domain",
			usage: `
              domain specifies a file with a 'mask' variable giving the
              active grid cells. If empty, the mask in the first file
              is used if it has one.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{compareCmd.Flags()},
		},
		{
			name: "title1",
			usage: `
              title1 is the name of the first file in the comparison
              table. The default is the file name without its extension.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{compareCmd.Flags()},
		},
		{
			name: "title2",
			usage: `
              title2 is the name of the second file in the comparison
              table. The default is the file name without its extension.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{compareCmd.Flags()},
		},
		{
			name: "ranges",
			usage: `
              ranges specifies a TOML file with overrides of the expected
              value (VMin, VMax) and difference (AMin, AMax) ranges of
              the compared variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{compareCmd.Flags()},
		},
		{
			name: "variables",
			usage: `
              variables specifies the variables to compare. The default
              is the standard surface and soil layer variables that are
              present in both files.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{compareCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("VICPARAM")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(compareCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("vicparam: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// setLogger configures the standard logger to write to w at the
// configured level.
func setLogger(w io.Writer) error {
	level, err := logrus.ParseLevel(Cfg.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("vicparam: %v", err)
	}
	logrus.SetOutput(w)
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "vicparam",
	Short: "Tools for VIC soil parameter files.",
	Long: `vicparam converts the baseflow parameters in VIC land surface model soil
parameter files from the ARNO to the NIJSSEN2001 parameterization, and compares
two parameter files. Use the subcommands specified below to access the
functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'VICPARAM_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setConfig(); err != nil {
			return err
		}
		return setLogger(cmd.OutOrStderr())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of vicparam.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("vicparam v%s\n", vicparam.Version)
	},
	DisableAutoGenTag: true,
}

// convertCmd converts the baseflow parameters in a parameter file.
var convertCmd = &cobra.Command{
	Use:   "convert <params.nc>",
	Short: "Convert ARNO baseflow parameters to NIJSSEN2001 parameters.",
	Long: `convert replaces the ARNO baseflow parameters (Ds, Dsmax, Ws and c) in a
VIC soil parameter file with the equivalent NIJSSEN2001 parameters (d1, d2, d3
and d4), calculated using the maximum soil moisture of the bottom soil layer.
The converted values keep the original variable names and are marked with a
'note' attribute. The input may be a local file, an http(s) URL, or a blob
('file://', 'gs://' or 's3://').`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := vicparam.ParsePolicy(Cfg.GetString("on_invalid"))
		if err != nil {
			return err
		}
		_, err = ConvertFile(context.Background(), args[0], Cfg.GetString("output"), policy, logrus.StandardLogger())
		return err
	},
	DisableAutoGenTag: true,
}

// compareCmd compares two parameter files.
var compareCmd = &cobra.Command{
	Use:   "compare <soil1.nc> <soil2.nc>",
	Short: "Compare two parameter files.",
	Long: `compare calculates statistics of the differences between the variables of
two VIC soil parameter files, for each soil layer of layered variables, and
prints them as a table. Grid cells outside of the domain mask or with missing
values in either file are skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := cast.ToStringSliceE(Cfg.Get("variables"))
		if err != nil {
			return fmt.Errorf("vicparam: invalid variables: %v", err)
		}
		cfg := CompareConfig{
			A:         args[0],
			B:         args[1],
			TitleA:    Cfg.GetString("title1"),
			TitleB:    Cfg.GetString("title2"),
			Domain:    Cfg.GetString("domain"),
			Ranges:    Cfg.GetString("ranges"),
			Variables: vars,
		}
		ctx := context.Background()
		log := logrus.StandardLogger()
		return writeOutput(ctx, Cfg.GetString("output"), cmd.OutOrStdout(), log, func(w io.Writer) error {
			return CompareFiles(ctx, cfg, w, log)
		})
	},
	DisableAutoGenTag: true,
}
