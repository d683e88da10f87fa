package upload_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/upload"
)

func TestDefaultPreparer_Defaults(t *testing.T) {
	t.Parallel()

	preparer := upload.NewDefaultPreparer()
	form := &definition.Form{ID: "contact"}
	el := &definition.Element{Key: "photo", Type: upload.TypeImageFile, Props: definition.MapOf("type", upload.TypeImageFile)}

	got, err := preparer.PrepareUpload(context.Background(), el, form)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	want := upload.Constraints{
		Extensions: []string{"gif", "jpg", "jpeg", "png"},
		Location:   "private://webform/contact/_sid_",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("constraints mismatch (-want +got):\n%s", diff)
	}
	if got.DottedExtensions() != ".gif,.jpg,.jpeg,.png" {
		t.Fatalf("unexpected dotted extensions %q", got.DottedExtensions())
	}
	if got.CleanExtensions() != "gif jpg jpeg png" {
		t.Fatalf("unexpected clean extensions %q", got.CleanExtensions())
	}
}

func TestDefaultPreparer_DeclaredValuesWin(t *testing.T) {
	t.Parallel()

	preparer := upload.NewDefaultPreparer(upload.WithDefaultMaxSize(8), upload.WithScheme("public"))
	el := &definition.Element{
		Key:  "cv",
		Type: upload.TypeDocumentFile,
		Props: definition.MapOf(
			"type", upload.TypeDocumentFile,
			"file_extensions", ".PDF, docx pdf",
			"max_filesize", "2",
			"uri_scheme", "s3",
		),
	}
	got, err := preparer.PrepareUpload(context.Background(), el, &definition.Form{ID: "jobs"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if diff := cmp.Diff([]string{"pdf", "docx"}, got.Extensions); diff != "" {
		t.Fatalf("extensions mismatch (-want +got):\n%s", diff)
	}
	if got.MaxSizeMb != 2 {
		t.Fatalf("expected declared max size, got %d", got.MaxSizeMb)
	}
	if got.Location != "s3://webform/jobs/_sid_" {
		t.Fatalf("unexpected location %q", got.Location)
	}

	el.Props.Set("max_filesize", nil)
	got, _ = preparer.PrepareUpload(context.Background(), el, nil)
	if got.MaxSizeMb != 8 {
		t.Fatalf("expected default max size, got %d", got.MaxSizeMb)
	}
}

func TestDefaultPreparer_Errors(t *testing.T) {
	t.Parallel()

	preparer := upload.NewDefaultPreparer()
	_, err := preparer.PrepareUpload(context.Background(), &definition.Element{Key: "x", Type: "textfield"}, nil)
	if !errors.Is(err, upload.ErrUnsupportedElement) {
		t.Fatalf("expected ErrUnsupportedElement, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := preparer.PrepareUpload(ctx, &definition.Element{Key: "x", Type: upload.TypeImageFile}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	custom := upload.NewDefaultPreparer(upload.WithDefaultExtensions("my_file", "csv"))
	got, err := custom.PrepareUpload(context.Background(), &definition.Element{Key: "f", Type: "my_file"}, nil)
	if err != nil || got.CleanExtensions() != "csv" {
		t.Fatalf("expected custom type support, got %+v (%v)", got, err)
	}
}

func TestMaxSizeBytes(t *testing.T) {
	t.Parallel()

	if got := upload.MaxSizeBytes(2); got != 2097152 {
		t.Fatalf("MaxSizeBytes(2) = %d", got)
	}
}
