package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gerunddev/orgtree/internal/config"
	"github.com/gerunddev/orgtree/internal/styles"
)

// Config manages the configuration file
func Config(argv []string) {
	exitOnError(runConfig(argv, os.Stdout))
}

func runConfig(argv []string, w io.Writer) error {
	a, err := parseArgs(argv, nil, []string{"force"})
	if err != nil {
		return err
	}

	sub := "show"
	if len(a.positional) > 0 {
		sub = a.positional[0]
	}

	switch sub {
	case "init":
		path := config.ConfigPath()
		if _, err := os.Stat(path); err == nil && !a.bools["force"] {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.DefaultConfig().Save(); err != nil {
			return err
		}
		fmt.Fprintln(w, styles.Success("Wrote "+path))
		return nil

	case "show":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(w, styles.DimStyle.Render("# "+config.ConfigPath()))
		fmt.Fprintln(w, string(data))
		return nil

	case "path":
		fmt.Fprintln(w, config.ConfigPath())
		return nil
	}

	return fmt.Errorf("unknown config command: %s (want init, show or path)", sub)
}
