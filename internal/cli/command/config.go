package command

import (
	"fmt"
	"reflect"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/output"
	"github.com/yndnr/tokgate/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Load and verify the configuration",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	f := ParseGlobalFlags(c).Output
	if f == output.FormatTable {
		f = output.FormatYAML
	}
	return output.NewFormatter(f).Format(c.App.Writer, configMap(config.Sanitize(cfg)))
}

func configValidate(c *cli.Context) error {
	_, loader, err := loadConfig(c)
	if err != nil {
		return err
	}
	source := loader.FilePath()
	if source == "" {
		source = "defaults and environment"
	}
	_, err = fmt.Fprintf(c.App.Writer, "configuration OK (%s)\n", source)
	return err
}

// configMap converts a configuration struct to nested maps keyed by the
// koanf tags, so printed keys match the file format.
func configMap(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		m := make(map[string]any, rv.NumField())
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			key := field.Tag.Get("koanf")
			if !field.IsExported() || key == "" || key == "-" {
				continue
			}
			m[key] = configMap(rv.Field(i).Interface())
		}
		return m
	default:
		if d, ok := v.(time.Duration); ok {
			return d.String()
		}
		return v
	}
}
