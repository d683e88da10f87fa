package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-webform/internal/store/sqlstore"
	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/orchestrator"
	"github.com/goliatone/go-webform/pkg/taxonomy"
	"github.com/goliatone/go-webform/pkg/tui"
	"github.com/goliatone/go-webform/pkg/uischema"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	source := flag.String("source", "", "definition file path or URL")
	dir := flag.String("dir", "", "directory of definitions; pick one with -form or interactively")
	formID := flag.String("form", "", "form id inside -dir")
	user := flag.String("user", "", "authenticated account id (enables drafts)")
	locale := flag.String("locale", "", "translation locale")
	indent := flag.Bool("indent", true, "indent JSON output")
	sanitize := flag.Bool("sanitize", false, "sanitize raw HTML markup")
	preset := flag.String("preset", "", "YAML/JSON preset applied before normalizing")
	output := flag.String("output", "", "output file (stdout if empty)")
	fill := flag.Bool("fill", false, "fill the form interactively instead of printing its schema")
	format := flag.String("format", string(tui.OutputFormatJSON), "fill output format: json, form or pretty")
	dbDriver := flag.String("db-driver", "", "draft and vocabulary store driver: pgx or sqlite")
	dbDSN := flag.String("db-dsn", "", "draft and vocabulary store DSN")
	flag.Parse()

	ctx := context.Background()

	var store *sqlstore.Store
	if *dbDriver != "" {
		var err error
		store, err = sqlstore.Open(ctx, *dbDriver, *dbDSN)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
	}

	normOpts := []normalizer.Option{}
	if *sanitize {
		normOpts = append(normOpts, normalizer.WithMarkupSanitizer(nil))
	}
	if store != nil {
		cached, err := taxonomy.NewCachedLoader(store, 0)
		if err != nil {
			return fmt.Errorf("build vocabulary cache: %w", err)
		}
		normOpts = append(normOpts, normalizer.WithDraftLoader(store), normalizer.WithVocabularyLoader(cached))
	}

	opts := []orchestrator.Option{
		orchestrator.WithNormalizer(normalizer.New(normOpts...)),
		orchestrator.WithIndent(*indent),
	}
	if *preset != "" {
		data, err := os.ReadFile(*preset)
		if err != nil {
			return fmt.Errorf("read preset: %w", err)
		}
		transformer, err := orchestrator.NewPresetTransformer(data)
		if err != nil {
			return fmt.Errorf("parse preset: %w", err)
		}
		opts = append(opts, orchestrator.WithTransformer(transformer))
	}

	req := orchestrator.Request{
		Account: normalizer.Account{ID: strings.TrimSpace(*user), Authenticated: strings.TrimSpace(*user) != ""},
		Locale:  *locale,
	}
	switch {
	case *source != "":
		src, err := definition.ParseSource(*source)
		if err != nil {
			return err
		}
		req.Source = src
	case *dir != "":
		forms, err := definition.LoadFS(os.DirFS(*dir))
		if err != nil {
			return fmt.Errorf("load definitions: %w", err)
		}
		opts = append(opts, orchestrator.WithStore(forms))
		req.FormID = *formID
		if req.FormID == "" {
			req.FormID, err = pickForm(ctx, forms.IDs())
			if err != nil {
				return fmt.Errorf("pick form: %w", err)
			}
		}
	default:
		return errors.New("either -source or -dir is required")
	}

	gen := orchestrator.New(opts...)

	if *fill {
		payload, err := fillForm(ctx, gen, req, store, tui.OutputFormat(*format))
		if err != nil {
			return fmt.Errorf("fill form: %w", err)
		}
		return writeOutput(*output, payload)
	}

	payload, err := gen.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	return writeOutput(*output, payload)
}

func pickForm(ctx context.Context, ids []string) (string, error) {
	switch len(ids) {
	case 0:
		return "", errors.New("no definitions found")
	case 1:
		return ids[0], nil
	}
	options := make([]uischema.Option, len(ids))
	for i, id := range ids {
		options[i] = uischema.Option{Value: id, Label: id}
	}
	answer, err := tui.NewSurveyDriver().Ask(ctx, tui.Question{
		Key:     "form",
		Kind:    tui.FieldSelect,
		Label:   "Webform",
		Options: options,
	})
	if err != nil {
		return "", err
	}
	id, _ := answer.(string)
	if id == "" {
		return "", errors.New("no form selected")
	}
	return id, nil
}

// fillForm prompts for the form's fields. With a store and an account the
// answers are kept as a draft, including when the session is interrupted.
func fillForm(ctx context.Context, gen *orchestrator.Orchestrator, req orchestrator.Request, store *sqlstore.Store, format tui.OutputFormat) ([]byte, error) {
	tree, err := gen.Schema(ctx, req)
	if err != nil {
		return nil, err
	}

	formID := req.FormID
	if formID == "" && req.Source != nil {
		formID = req.Source.FormID()
	}
	var loaded *normalizer.Draft
	prefill := tui.Prefill{}
	saveDraft := store != nil && !req.Account.Anonymous() && formID != ""
	if saveDraft {
		loaded, err = store.LoadDraft(ctx, req.Account.ID, formID)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			prefill.Values = loaded.Values
			prefill.Page = loaded.CurrentPage
		}
	}

	result, fillErr := tui.New().Fill(ctx, tree, prefill)
	if fillErr != nil && !errors.Is(fillErr, tui.ErrAborted) {
		return nil, fillErr
	}

	if saveDraft {
		sid, err := store.SaveDraft(ctx, req.Account.ID, formID, mergeDraft(loaded, result))
		if err != nil {
			return nil, err
		}
		log.Printf("draft %s saved for %s on %s", sid, req.Account.ID, formID)
	}
	if fillErr != nil {
		return nil, fillErr
	}
	return tui.Encode(result.Values, format)
}

// mergeDraft builds the draft to store after a fill session. Answers given in
// the session win over loaded values, and the loaded submission id is kept.
func mergeDraft(loaded *normalizer.Draft, result tui.Result) normalizer.Draft {
	values := result.ValueMap()
	draft := normalizer.Draft{CurrentPage: result.Page, Values: values}
	if loaded == nil {
		return draft
	}
	draft.SID = loaded.SID
	for key, value := range loaded.Values {
		if _, ok := values[key]; !ok {
			values[key] = value
		}
	}
	return draft
}

func writeOutput(path string, payload []byte) error {
	if path != "" {
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("Output written to %s\n", path)
		return nil
	}
	fmt.Println(string(payload))
	return nil
}
