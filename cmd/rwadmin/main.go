package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

type cli struct {
	Config   string `short:"c" type:"path" env:"RWADMIN_CONFIG" help:"Path to the rwadmin YAML config."`
	LogLevel string `default:"info" enum:"debug,info,warn,error" help:"Log level."`

	Serve     serveCmd     `cmd:"" help:"Serve the admin editor API."`
	Preview   previewCmd   `cmd:"" help:"Render a widget configuration to HTML."`
	Templates templatesCmd `cmd:"" help:"List widget configuration templates."`
	Validate  validateCmd  `cmd:"" help:"Validate a configuration against a JSON schema."`
	Mode      modeCmd      `cmd:"" help:"Switch the editing mode of a widget draft interactively."`
	Drafts    draftsCmd    `cmd:"" help:"Manage persisted editor drafts."`
}

// globals is bound into every command's Run.
type globals struct {
	config string
	logger *slog.Logger
	out    io.Writer
}

func main() {
	var app cli
	ctx := kong.Parse(&app,
		kong.Name("rwadmin"),
		kong.Description("Resource Watch admin editor: widget, layer and dataset forms with live previews."),
		kong.UsageOnError(),
	)
	g := &globals{
		config: app.Config,
		logger: newLogger(os.Stderr, app.LogLevel),
		out:    os.Stdout,
	}
	err := ctx.Run(context.Background(), g)
	ctx.FatalIfErrorf(err)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
