package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-rwadmin/components/editor"
	"github.com/goliatone/go-rwadmin/components/preview"
	"github.com/goliatone/go-rwadmin/pkg/config"
	"github.com/goliatone/go-rwadmin/pkg/drafts"
	"github.com/goliatone/go-rwadmin/pkg/prompt"
	"github.com/goliatone/go-rwadmin/pkg/rwapi"
)

type previewCmd struct {
	File  string `arg:"" type:"existingfile" help:"Widget configuration (JSON or YAML)."`
	Out   string `short:"o" type:"path" help:"Write the HTML here instead of stdout."`
	Theme string `help:"Chart theme."`
}

func (cmd *previewCmd) Run(ctx context.Context, g *globals) error {
	cfg, err := readConfigFile(cmd.File)
	if err != nil {
		return err
	}
	renderer := preview.NewRenderer(preview.WithLogger(g.logger))
	theme := cmd.Theme
	if theme == "" {
		theme = preview.DefaultTheme
	}
	res, err := renderer.Render(ctx, preview.Request{Config: cfg, Theme: theme})
	if err != nil {
		return err
	}
	if res.Kind == preview.KindSkipped {
		return fmt.Errorf("rwadmin: %s has nothing to preview", cmd.File)
	}
	if cmd.Out == "" {
		printf(g.out, "%s\n", res.HTML)
		return nil
	}
	if err := os.WriteFile(cmd.Out, []byte(res.HTML), 0o644); err != nil {
		return fmt.Errorf("rwadmin: write preview: %w", err)
	}
	printf(g.out, "✓ Rendered %s preview to %s\n", res.Kind, cmd.Out)
	return nil
}

type templatesCmd struct {
	Manifest string `type:"existingfile" help:"Template manifest to list instead of the built-in one."`
	Show     string `help:"Print the configuration of one template."`
}

func (cmd *templatesCmd) Run(_ context.Context, g *globals) error {
	catalog := editor.DefaultTemplates()
	if cmd.Manifest != "" {
		loaded, err := editor.LoadTemplateFile(cmd.Manifest)
		if err != nil {
			return err
		}
		catalog = loaded
	}
	if cmd.Show != "" {
		out, err := json.MarshalIndent(catalog.Config(cmd.Show), "", "  ")
		if err != nil {
			return err
		}
		printf(g.out, "%s\n", out)
		return nil
	}
	tw := tabwriter.NewWriter(g.out, 0, 4, 2, ' ', 0)
	printf(tw, "ID\tLABEL\tTYPE\n")
	for _, tpl := range catalog.List() {
		kind, _ := tpl.Config["type"].(string)
		printf(tw, "%s\t%s\t%s\n", tpl.ID, tpl.Label, kind)
	}
	return tw.Flush()
}

type validateCmd struct {
	File   string `arg:"" type:"existingfile" help:"Configuration to validate (JSON or YAML)."`
	Schema string `required:"" type:"existingfile" help:"JSON schema file."`
}

func (cmd *validateCmd) Run(_ context.Context, g *globals) error {
	cfg, err := readConfigFile(cmd.File)
	if err != nil {
		return err
	}
	schema, err := readConfigFile(cmd.Schema)
	if err != nil {
		return err
	}
	name := strcase.ToKebab(strings.TrimSuffix(filepath.Base(cmd.File), filepath.Ext(cmd.File)))
	if err := editor.NewJSONSchemaValidator().Validate(name, schema, cfg); err != nil {
		return err
	}
	printf(g.out, "✓ %s is valid\n", cmd.File)
	return nil
}

type modeCmd struct {
	To     string `required:"" enum:"advanced,editor" help:"Mode to switch to."`
	Widget string `help:"Widget id to load from the API."`
	File   string `type:"existingfile" help:"Widget form (JSON or YAML) to load instead of the API."`
	Draft  string `help:"Draft session id to resume."`
}

func (cmd *modeCmd) Run(ctx context.Context, g *globals) error {
	cfg, err := config.Load(g.config)
	if err != nil {
		return err
	}
	form, err := cmd.form(ctx, cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg, g.logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := editor.NewService(editor.Options{
		Store:     store,
		Confirmer: prompt.NewSurveyConfirmer(),
		Logger:    g.logger,
	})
	snap, err := svc.Open(ctx, editor.OpenRequest{
		SessionID: cmd.Draft,
		Kind:      editor.StepWidget,
		ID:        cmd.Widget,
		Form:      form,
	})
	if err != nil {
		return err
	}
	target, err := editor.ParseMode(cmd.To)
	if err != nil {
		return err
	}
	res, err := svc.SwitchMode(ctx, snap.ID, target)
	if err != nil {
		return err
	}
	printf(g.out, "session %s: %s (%s)\n", snap.ID, res.Mode, res.Decision)
	return nil
}

func (cmd *modeCmd) form(ctx context.Context, cfg config.Config) (editor.FormState, error) {
	switch {
	case cmd.File != "":
		return readConfigFile(cmd.File)
	case cmd.Widget != "":
		client, err := rwapi.NewClient(rwapi.Config{
			BaseURL:     cfg.API.BaseURL,
			Token:       cfg.API.Token,
			Application: cfg.API.Application,
			Env:         cfg.API.Env,
		})
		if err != nil {
			return nil, err
		}
		return editor.NewAPILoader(client).LoadForm(ctx, editor.StepWidget, cmd.Widget)
	}
	return editor.FormState{}, nil
}

type draftsCmd struct {
	Prune pruneCmd `cmd:"" help:"Remove drafts older than the configured max age."`
}

type pruneCmd struct {
	MaxAge time.Duration `help:"Override drafts.max_age."`
}

func (cmd *pruneCmd) Run(ctx context.Context, g *globals) error {
	cfg, err := config.Load(g.config)
	if err != nil {
		return err
	}
	if cfg.Drafts.Path == "" {
		return fmt.Errorf("rwadmin: drafts.path is not configured")
	}
	maxAge := cfg.Drafts.MaxAge
	if cmd.MaxAge > 0 {
		maxAge = cmd.MaxAge
	}
	store, err := drafts.Open(cfg.Drafts.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	removed, err := store.Prune(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return err
	}
	printf(g.out, "✓ Removed %d drafts older than %s\n", removed, maxAge)
	return nil
}

// readConfigFile decodes a JSON or YAML object. YAML is a superset of JSON so
// both go through yaml.v3.
func readConfigFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("rwadmin: read %s: %w", path, err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("rwadmin: decode %s: %w", path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
