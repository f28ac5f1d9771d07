package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/jaxxstorm/gitversion"
	"gopkg.in/yaml.v3"
)

// Version will be set by build process
var Version = "dev"

// stdout is where resolved versions are written
var stdout io.Writer = os.Stdout

// defaultOutputs are requested when neither flags nor config name any
var defaultOutputs = []string{"version", "full-version", "major", "minor", "patch"}

type CLI struct {
	Source         string   `short:"s" default:"." env:"GITVERSION_SOURCE_DIR" help:"Directory the repository query is rooted at"`
	Config         string   `short:"c" help:"Configuration file (default: <source>/.gitversion.yaml)"`
	DefaultVersion string   `short:"d" env:"GITVERSION_DEFAULT_VERSION" help:"Version used when no tag resolves (default: 0.0.0)"`
	Prefix         string   `short:"p" env:"GITVERSION_PREFIX" help:"Literal tag prefix before MAJOR.MINOR.PATCH (e.g., 'v', 'release-')"`
	HashLength     int      `env:"GITVERSION_HASH_LENGTH" help:"Commit hash length in versions, 1-40 (default: 9)"`
	FailOnMismatch bool     `env:"GITVERSION_FAIL_ON_MISMATCH" help:"Fail when the default version disagrees with the tag"`
	Describe       string   `help:"Resolve captured 'git describe --tags' output instead of querying the repository"`
	Commit         string   `help:"Commit hash accompanying --describe"`
	Branch         string   `help:"Branch name accompanying --describe"`
	Dirty          bool     `help:"Mark the working tree dirty when using --describe"`
	Output         []string `short:"o" sep:"," help:"Fields to print: version,full-version,major,minor,patch,tagged,development,dirty,tag,commit,commits-since-tag,branch"`
	Format         string   `short:"f" default:"text" enum:"text,json,yaml,env" help:"Output format"`
	EnvPrefix      string   `default:"PROJECT" help:"Variable prefix for --format env"`
	Verbose        bool     `short:"v" help:"Log resolution details to stderr"`
	ShowVersion    bool     `help:"Show version information" name:"version"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("gitversion"),
		kong.Description("Resolve a project's semantic version from Git tags and commit history"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.ShowVersion {
		return c.showVersion()
	}

	opts, err := c.options()
	if err != nil {
		return err
	}

	version, err := gitversion.Resolve(opts, c.describe(opts))
	if err != nil {
		return fmt.Errorf("resolving version: %w", err)
	}

	return writeFields(stdout, version.Fields(opts.Outputs), c.Format, c.EnvPrefix)
}

func (c *CLI) showVersion() error {
	if c.Format == "json" {
		return json.NewEncoder(stdout).Encode(map[string]string{
			"version": Version,
			"name":    "gitversion",
		})
	}

	fmt.Fprintf(stdout, "gitversion version %s\n", Version)
	return nil
}

// options merges the configuration file with flags, flags winning
func (c *CLI) options() (gitversion.Options, error) {
	var (
		cfg *gitversion.FileConfig
		err error
	)
	if c.Config != "" {
		cfg, err = gitversion.LoadConfig(c.Config)
	} else {
		cfg, err = gitversion.FindConfig(c.Source)
	}
	if err != nil {
		return gitversion.Options{}, err
	}

	if c.DefaultVersion != "" {
		cfg.DefaultVersion = c.DefaultVersion
	}
	if c.Prefix != "" {
		cfg.Prefix = c.Prefix
	}
	if c.HashLength != 0 {
		cfg.HashLength = c.HashLength
	}
	if c.FailOnMismatch {
		cfg.FailOnMismatch = true
	}
	if len(c.Output) > 0 {
		cfg.Outputs = c.Output
	}
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = defaultOutputs
	}

	opts, err := cfg.Options()
	if err != nil {
		return gitversion.Options{}, err
	}
	opts.Logger = gitversion.NewLogger(os.Stderr, c.Verbose)

	return opts, nil
}

func (c *CLI) describe(opts gitversion.Options) gitversion.DescribeResult {
	if c.Describe != "" {
		return gitversion.Described{
			RawText:    c.Describe,
			CommitHash: c.Commit,
			Branch:     c.Branch,
			Dirty:      c.Dirty,
		}
	}

	return gitversion.DescribePath(c.Source, gitversion.DescribeOptions{
		Prefix: opts.Prefix,
		Abbrev: opts.HashLength,
	})
}

func writeFields(w io.Writer, fields []gitversion.Field, format, envPrefix string) error {
	switch strings.ToLower(format) {
	case "json":
		return json.NewEncoder(w).Encode(fieldMap(fields))
	case "yaml":
		out, err := yaml.Marshal(fieldMap(fields))
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "env":
		for _, f := range fields {
			key := f.Key
			if envPrefix != "" {
				key = envPrefix + "_" + key
			}
			if _, err := fmt.Fprintf(w, "%s=%s\n", key, formatValue(f.Value)); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, f := range fields {
			if _, err := fmt.Fprintln(w, formatValue(f.Value)); err != nil {
				return err
			}
		}
		return nil
	}
}

func fieldMap(fields []gitversion.Field) map[string]any {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Name] = f.Value
	}
	return m
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
