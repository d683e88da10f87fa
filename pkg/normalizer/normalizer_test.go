package normalizer_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/taxonomy"
	"github.com/goliatone/go-webform/pkg/tokens"
	"github.com/goliatone/go-webform/pkg/uischema"
	"github.com/goliatone/go-webform/pkg/upload"
)

var member = normalizer.Request{Account: normalizer.Account{ID: "7", Authenticated: true}}

func decode(t *testing.T, src string) *definition.Form {
	t.Helper()
	form, err := definition.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return form
}

func normalize(t *testing.T, n *normalizer.Normalizer, form *definition.Form, req normalizer.Request) *uischema.Tree {
	t.Helper()
	tree, err := n.Normalize(context.Background(), form, req)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return tree
}

func encode(t *testing.T, tree *uischema.Tree) string {
	t.Helper()
	payload, err := uischema.Encode(tree, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(payload)
}

func field(t *testing.T, tree *uischema.Tree, key string) *uischema.Node {
	t.Helper()
	node, ok := tree.Field(key)
	if !ok {
		t.Fatalf("expected field %q, have %v", key, tree.Entries())
	}
	return node
}

func TestNormalize_SimpleForm(t *testing.T) {
	form := decode(t, `
id: contact
settings:
  form_reset: true
elements:
  name:
    '#type': textfield
    '#title': Name
    '#required': true
  topic:
    '#type': select
    '#title': Topic
    '#options':
      z: Zeta
      a: Alpha
    '#empty_option': '- Select -'
  actions:
    '#type': webform_actions
    '#submit__label': Send
`)

	got := encode(t, normalize(t, normalizer.New(), form, normalizer.Request{}))
	want := `{"name":{"type":"text","label":"Name","class":"","validation":{"required":true}},` +
		`"topic":{"type":"select","label":"Topic","options":[{"value":"","label":"- Select -"},{"value":"z","label":"Zeta"},{"value":"a","label":"Alpha"}],"emptyOption":"- Select -","class":""},` +
		`"buttons":{"actions":{"actions":{"text":"Send","type":"webform_actions"}},"reset":{"hidden":false,"text":"Reset"}}}`
	if got != want {
		t.Fatalf("unexpected schema\nwant %s\ngot  %s", want, got)
	}
}

func TestNormalize_PreservesDeclarationOrder(t *testing.T) {
	form := decode(t, `
zulu: {'#type': textfield}
alpha: {'#type': number}
mike:
  '#type': fieldset
  yankee: {'#type': textarea}
  bravo: {'#type': date}
choice:
  '#type': radios
  '#options': {'3': Three, '1': One, '2': Two}
`)

	tree := normalize(t, normalizer.New(), form, normalizer.Request{})
	if diff := cmp.Diff([]string{"zulu", "alpha", "mike", "choice"}, tree.Keys()); diff != "" {
		t.Fatalf("root order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"yankee", "bravo"}, field(t, tree, "mike").Childs.Keys()); diff != "" {
		t.Fatalf("childs order mismatch (-want +got):\n%s", diff)
	}
	wantOptions := []uischema.Option{{Value: "3", Label: "Three"}, {Value: "1", Label: "One"}, {Value: "2", Label: "Two"}}
	if diff := cmp.Diff(wantOptions, field(t, tree, "choice").OptionValues()); diff != "" {
		t.Fatalf("options order mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_FlattensOptionGroups(t *testing.T) {
	form := decode(t, `
city:
  '#type': select
  '#options':
    France:
      paris: Paris
      lyon: Lyon
    other: Other
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})
	want := []uischema.Option{{Value: "paris", Label: "Paris"}, {Value: "lyon", Label: "Lyon"}, {Value: "other", Label: "Other"}}
	if diff := cmp.Diff(want, field(t, tree, "city").OptionValues()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_FlexTotal(t *testing.T) {
	form := decode(t, `
row:
  '#type': webform_flexbox
  first: {'#type': textfield}
  second: {'#type': textfield, '#flex': 1}
  third: {'#type': textfield, '#flex': 2}
single:
  '#type': webform_flexbox
  only: {'#type': textfield, '#flex': 3}
plain:
  '#type': container
  inner: {'#type': textfield}
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})

	row := field(t, tree, "row")
	total, ok := row.Childs.FlexTotal()
	if !ok || total != 4 {
		t.Fatalf("expected flexTotal 4, got %d (%v)", total, ok)
	}
	if got := *field(t, row.Childs, "first").Flex; got != 1 {
		t.Fatalf("expected default flex weight 1, got %d", got)
	}
	if got := *field(t, row.Childs, "third").Flex; got != 2 {
		t.Fatalf("expected declared flex weight 2, got %d", got)
	}
	if entries := row.Childs.Entries(); entries[len(entries)-1] != "flexTotal" {
		t.Fatalf("expected flexTotal after the fields, got %v", entries)
	}

	if _, ok := field(t, tree, "single").Childs.FlexTotal(); ok {
		t.Fatalf("a single flex child must not yield flexTotal")
	}

	plain := field(t, tree, "plain")
	if _, ok := plain.Childs.FlexTotal(); ok {
		t.Fatalf("non-flex container must not yield flexTotal")
	}
	if field(t, plain.Childs, "inner").Flex != nil {
		t.Fatalf("leaf outside a flexbox must not carry flex")
	}
}

func TestNormalize_ExplicitFlexItems(t *testing.T) {
	form := decode(t, `
row:
  '#type': webform_flexbox
  wide: {'#type': textfield, '#flex': 2}
  opted_out: {'#type': textfield, '#webform_parent_flexbox': false}
  box:
    '#type': container
    '#flex': 3
    leaf: {'#type': textfield}
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})
	row := field(t, tree, "row")
	total, ok := row.Childs.FlexTotal()
	if !ok || total != 5 {
		t.Fatalf("expected flexTotal 5, got %d (%v)", total, ok)
	}
	if field(t, row.Childs, "opted_out").Flex != nil {
		t.Fatalf("opted out child must not carry flex")
	}
	box := field(t, row.Childs, "box")
	if box.Flex == nil || *box.Flex != 3 {
		t.Fatalf("expected layout flex 3, got %v", box.Flex)
	}
}

func TestNormalize_LayoutProperties(t *testing.T) {
	form := decode(t, `
about:
  '#type': details
  '#title': About you
  '#title_display': invisible
  '#description': Tell us more
  '#description_display': before
  '#align_items': center
  '#attributes':
    class: [card, card--wide]
  bio: {'#type': textarea}
empty:
  '#type': fieldset
  '#description_display': after
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})
	got := encode(t, tree)
	wantAbout := `"about":{"type":"details","title":"About you","align_items":"center","title_display":"invisible","description":"Tell us more","description_display":"before","class":"card card--wide","childs":{"bio":{"type":"textArea","class":""}}}`
	if !strings.Contains(got, wantAbout) {
		t.Fatalf("layout mismatch\nwant %s\nin   %s", wantAbout, got)
	}
	wantEmpty := `"empty":{"type":"fieldset","title":""}`
	if !strings.Contains(got, wantEmpty) {
		t.Fatalf("expected childless layout without childs or description_display\nwant %s\nin   %s", wantEmpty, got)
	}
}

func TestNormalize_SameAs(t *testing.T) {
	form := decode(t, `
e0: {'#type': textfield}
e1: {'#type': email, '#title': Email}
e2: {'#type': webform_email_confirm, '#title': Confirm}
e3: {'#type': email}
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})
	v := field(t, tree, "e2").Validation
	if v == nil || v.SameAs != "e1" {
		t.Fatalf("expected sameAs e1, got %+v", v)
	}
	if v.SameAsError != "The field Confirm is not valid" {
		t.Fatalf("unexpected sameAsError %q", v.SameAsError)
	}
	if field(t, tree, "e1").Validation.SameAs != "" {
		t.Fatalf("plain email fields must not carry sameAs")
	}

	lone := decode(t, `confirm: {'#type': webform_email_confirm}`)
	if got := field(t, normalize(t, normalizer.New(), lone, normalizer.Request{}), "confirm").Validation.SameAs; got != "" {
		t.Fatalf("expected no sameAs without an email sibling, got %q", got)
	}
}

func TestNormalize_EmailPattern(t *testing.T) {
	form := decode(t, `
mail: {'#type': email, '#title': Email}
work:
  '#type': email
  '#pattern': '^.+@corp\.example$'
  '#pattern_error': Use your work address
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})

	implicit := field(t, tree, "mail").Validation
	if implicit.Pattern != normalizer.EmailPattern {
		t.Fatalf("expected implicit email pattern, got %q", implicit.Pattern)
	}
	if implicit.PatternError != "The field Email is not valid" {
		t.Fatalf("unexpected generated error %q", implicit.PatternError)
	}

	explicit := field(t, tree, "work").Validation
	if explicit.Pattern != `^.+@corp\.example$` || explicit.PatternError != "Use your work address" {
		t.Fatalf("explicit pattern must be kept, got %+v", explicit)
	}

	payload := encode(t, tree)
	if !strings.Contains(payload, `"pattern":"/^[A-Z0-9._%+-]+@[A-Z0-9.-]+\\.[A-Z]{2,4}$/i"`) {
		t.Fatalf("expected case-insensitive email literal in %s", payload)
	}
}

func TestNormalize_ValidationRules(t *testing.T) {
	form := decode(t, `
age:
  '#type': number
  '#required': true
  '#required_error': Age please
  '#min': 18
  '#max': 120
optional: {'#type': textfield, '#required': false}
robot: {'#type': captcha}
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})
	want := &uischema.Validation{Required: true, RequiredError: "Age please", Min: 18, Max: 120}
	if diff := cmp.Diff(want, field(t, tree, "age").Validation); diff != "" {
		t.Fatalf("validation mismatch (-want +got):\n%s", diff)
	}
	if field(t, tree, "optional").Validation != nil {
		t.Fatalf("false #required must not produce validation")
	}
	if v := field(t, tree, "robot").Validation; v == nil || !v.Required {
		t.Fatalf("captcha must always be required, got %+v", v)
	}
}

func TestNormalize_LeafProperties(t *testing.T) {
	form := decode(t, `
phone:
  '#type': tel
  '#title': Phone
  '#placeholder': '+33'
  '#description': Mobile preferred
  '#readonly': true
  '#title_display': inline
  '#attributes': {class: narrow}
secret: {'#type': hidden, '#default_value': abc}
rating:
  '#type': webform_buttons
  '#options': [low, high]
  '#options_display': side_by_side
  '#options_all': true
  '#options_none': false
  '#empty_option': None
  '#empty_value': '_none'
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})
	got := encode(t, tree)
	wants := []string{
		`"phone":{"type":"text","label":"Phone","title_display":"inline","placeholder":"+33","helperText":"Mobile preferred","readOnly":true,"htmlInputType":"tel","class":"narrow"}`,
		`"secret":{"type":"text","default_value":"abc","htmlInputType":"hidden","class":""}`,
		`"rating":{"type":"checkboxes","options":[{"value":"_none","label":"None"},{"value":"low","label":"low"},{"value":"high","label":"high"}],"emptyOption":"None","emptyValue":"_none","optionsDisplay":"side_by_side","optionsAll":true,"optionsNone":false,"class":""}`,
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Fatalf("missing fragment\nwant %s\nin   %s", want, got)
		}
	}
}

func TestNormalize_TermSelect(t *testing.T) {
	form := decode(t, `
none: {'#type': webform_term_select, '#vocabulary': ~}
tree: {'#type': webform_term_select, '#vocabulary': regions}
crumbs:
  '#type': webform_term_select
  '#vocabulary': regions
  '#breadcrumb': true
  '#breadcrumb_delimiter': ' / '
shallow: {'#type': webform_term_select, '#vocabulary': regions, '#depth': 1, '#empty_option': Any}
`)
	calls := 0
	loader := normalizer.VocabularyLoaderFunc(func(_ context.Context, id string) ([]taxonomy.Term, error) {
		calls++
		if id != "regions" {
			t.Fatalf("unexpected vocabulary %q", id)
		}
		return []taxonomy.Term{
			{ID: "1", Label: "Europe"},
			{ID: "2", Label: "France", ParentID: "1"},
			{ID: "3", Label: "Paris", ParentID: "2"},
			{ID: "4", Label: "Asia"},
		}, nil
	})

	tree := normalize(t, normalizer.New(normalizer.WithVocabularyLoader(loader)), form, normalizer.Request{})

	noneNode := field(t, tree, "none")
	if noneNode.Options == nil || len(*noneNode.Options) != 0 {
		t.Fatalf("expected empty options for missing vocabulary, got %v", noneNode.Options)
	}
	if !strings.Contains(encode(t, tree), `"none":{"type":"select","options":[],"class":""}`) {
		t.Fatalf("expected [] options in payload")
	}

	wantTree := []uischema.Option{
		{Value: "1", Label: "Europe"},
		{Value: "2", Label: "-France"},
		{Value: "3", Label: "--Paris"},
		{Value: "4", Label: "Asia"},
	}
	if diff := cmp.Diff(wantTree, field(t, tree, "tree").OptionValues()); diff != "" {
		t.Fatalf("tree options mismatch (-want +got):\n%s", diff)
	}
	if got := field(t, tree, "crumbs").OptionValues()[2].Label; got != "Europe / France / Paris" {
		t.Fatalf("unexpected breadcrumb label %q", got)
	}
	wantShallow := []uischema.Option{{Value: "", Label: "Any"}, {Value: "1", Label: "Europe"}, {Value: "4", Label: "Asia"}}
	if diff := cmp.Diff(wantShallow, field(t, tree, "shallow").OptionValues()); diff != "" {
		t.Fatalf("depth-limited options mismatch (-want +got):\n%s", diff)
	}
	if calls != 3 {
		t.Fatalf("expected one vocabulary load per term select, got %d", calls)
	}
}

func TestNormalize_Upload(t *testing.T) {
	form := decode(t, `
id: jobs
elements:
  cv:
    '#type': webform_document_file
    '#max_filesize': 2
    '#file_extensions': 'pdf docx'
  photos:
    '#type': webform_image_file
    '#multiple': 3
  single: {'#type': webform_image_file, '#multiple': false}
`)
	calls := map[string]int{}
	base := upload.NewDefaultPreparer(upload.WithDefaultMaxSize(5))
	preparer := normalizer.UploadPreparerFunc(func(ctx context.Context, el *definition.Element, f *definition.Form) (upload.Constraints, error) {
		calls[el.Key]++
		if f.ID != "jobs" {
			t.Fatalf("preparer received form %q", f.ID)
		}
		return base.PrepareUpload(ctx, el, f)
	})

	tree := normalize(t, normalizer.New(normalizer.WithUploadPreparer(preparer)), form, normalizer.Request{})

	cv := field(t, tree, "cv")
	if *cv.Validation.MaxSizeBytes != 2097152 || *cv.MaxSizeMb != 2 {
		t.Fatalf("expected 2 MB limit, got %d bytes / %d MB", *cv.Validation.MaxSizeBytes, *cv.MaxSizeMb)
	}
	if cv.Validation.Extensions != ".pdf,.docx" || cv.ExtensionsClean != "pdf docx" {
		t.Fatalf("unexpected extensions %q / %q", cv.Validation.Extensions, cv.ExtensionsClean)
	}
	if *cv.IsMultiple || cv.Validation.MaxFiles != nil {
		t.Fatalf("cv must be single-file")
	}

	photos := field(t, tree, "photos")
	if !*photos.IsMultiple || photos.Validation.MaxFiles == nil || *photos.Validation.MaxFiles != 3 {
		t.Fatalf("expected multiple upload capped at 3, got %+v", photos.Validation)
	}
	if *photos.MaxSizeMb != 5 {
		t.Fatalf("expected preparer default size, got %d", *photos.MaxSizeMb)
	}
	if photos.Validation.Extensions != ".gif,.jpg,.jpeg,.png" {
		t.Fatalf("expected default image extensions, got %q", photos.Validation.Extensions)
	}
	if *field(t, tree, "single").IsMultiple {
		t.Fatalf("#multiple false must not be multiple")
	}
	for key, n := range calls {
		if n != 1 {
			t.Fatalf("preparer called %d times for %s", n, key)
		}
	}
}

func TestNormalize_RawHTML(t *testing.T) {
	form := decode(t, `
intro:
  '#type': processed_text
  '#text': '<p onclick="x()">Hello <script>alert(1)</script><b>there</b></p>'
  '#format': full_html
  '#wrapper_attributes': {class: [lead]}
`)
	verbatim := encode(t, normalize(t, normalizer.New(), form, normalizer.Request{}))
	want := `"intro":{"type":"rawhtml","class":"","html":"<p onclick=\"x()\">Hello <script>alert(1)</script><b>there</b></p>","format":"full_html","attributes":{"class":["lead"]}}`
	if !strings.Contains(verbatim, want) {
		t.Fatalf("raw html mismatch\nwant %s\nin   %s", want, verbatim)
	}

	sanitized := field(t, normalize(t, normalizer.New(normalizer.WithMarkupSanitizer(nil)), form, normalizer.Request{}), "intro")
	if *sanitized.HTML != "<p>Hello <b>there</b></p>" {
		t.Fatalf("unexpected sanitized markup %q", *sanitized.HTML)
	}
}

func TestNormalize_States(t *testing.T) {
	form := decode(t, `
newsletter: {'#type': checkbox}
topic:
  '#type': textfield
  '#states':
    visible:
      - ':input[name="newsletter"]': {checked: true}
      - or
      - ':input[name="address[city]"]': {filled: true}
    required:
      ':input[name="newsletter"]': {checked: true}
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})
	got := encode(t, tree)
	want := `"states":{"visible":{"operator":"or","checks":[{"element":"newsletter","operator":"checked","value":true},{"element":"address","operator":"filled","value":true}]},"required":{"checks":[{"element":"newsletter","operator":"checked","value":true}]}}`
	if !strings.Contains(got, want) {
		t.Fatalf("states mismatch\nwant %s\nin   %s", want, got)
	}
}

func TestNormalize_DefaultValues(t *testing.T) {
	form := decode(t, `
settings: {draft: authenticated}
elements:
  name: {'#type': textfield, '#default_value': '[current-user:name]'}
  city: {'#type': textfield, '#default_value': Paris}
  tags: {'#type': checkboxes, '#default_value': ['[site:name]', 3]}
`)
	replacer := tokens.New(tokens.WithValues(map[string]string{
		"current-user:name": "Ada",
		"site:name":         "Example",
		"draft:city":        "Lyon",
	}))
	drafts := normalizer.DraftLoaderFunc(func(_ context.Context, userID, formID string) (*normalizer.Draft, error) {
		return &normalizer.Draft{SID: "9", Values: map[string]any{"city": "[draft:city]"}}, nil
	})
	n := normalizer.New(normalizer.WithTokenReplacer(replacer), normalizer.WithDraftLoader(drafts))

	anonymous := normalize(t, n, form, normalizer.Request{})
	if got := field(t, anonymous, "name").DefaultValue; got != "Ada" {
		t.Fatalf("expected token replaced default, got %v", got)
	}
	if got := field(t, anonymous, "city").DefaultValue; got != "Paris" {
		t.Fatalf("anonymous users must not see draft values, got %v", got)
	}
	if diff := cmp.Diff([]any{"Example", 3}, field(t, anonymous, "tags").DefaultValue); diff != "" {
		t.Fatalf("list default mismatch (-want +got):\n%s", diff)
	}

	authenticated := normalize(t, n, form, member)
	if got := field(t, authenticated, "city").DefaultValue; got != "Lyon" {
		t.Fatalf("expected draft value to win and pass through tokens, got %v", got)
	}
	if authenticated.Draft() != nil {
		t.Fatalf("forms without pages must not carry a draft block")
	}
}

const wizard = `
id: survey
settings:
  draft: authenticated
  preview: 1
  preview_label: Check
  preview_excluded_elements: {notes: notes}
  wizard_prev_button_label: Back
  wizard_next_button_label: Next
elements:
  step_one:
    '#type': webform_wizard_page
    '#title': One
    '#next_button_label': Continue
    q1: {'#type': textfield}
  step_two:
    '#type': webform_wizard_page
    '#title': Two
    '#attributes': {class: [last]}
    notes: {'#type': textarea}
`

func TestNormalize_Pages(t *testing.T) {
	tree := normalize(t, normalizer.New(), decode(t, wizard), normalizer.Request{})
	got := encode(t, tree)
	want := `{"pages":{"step_one":{"type":"webform_wizard_page","title":"One","next_button_label":"Continue","childs":{"q1":{"type":"text","class":""}}},` +
		`"step_two":{"type":"webform_wizard_page","title":"Two","class":"last","childs":{"notes":{"type":"textArea","class":""}}},` +
		`"webform_preview":{"preview":{"enable":true,"label":"Check","title":"","message":"","excluded_elements":{"notes":"notes"},"preview_exclude_empty":false},"wizard":{"prev_button_label":"Back","next_button_label":"Next"}}},` +
		`"buttons":{"reset":{"hidden":true,"text":"Reset"}}}`
	if got != want {
		t.Fatalf("unexpected wizard schema\nwant %s\ngot  %s", want, got)
	}
}

func TestNormalize_DraftCurrentPage(t *testing.T) {
	form := decode(t, wizard)
	loads := 0
	drafts := normalizer.DraftLoaderFunc(func(_ context.Context, userID, formID string) (*normalizer.Draft, error) {
		loads++
		if userID != "7" || formID != "survey" {
			t.Fatalf("unexpected draft lookup %s/%s", userID, formID)
		}
		return &normalizer.Draft{SID: "42", CurrentPage: "step_two"}, nil
	})
	n := normalizer.New(normalizer.WithDraftLoader(drafts))

	tree := normalize(t, n, form, member)
	draft := tree.Draft()
	if draft == nil || draft.PageIndex == nil || *draft.PageIndex != 1 {
		t.Fatalf("expected current_page 1, got %+v", draft)
	}
	if !strings.Contains(encode(t, tree), `"draft":{"enable":true,"currentPage":"step_two","sid":"42","current_page":1}`) {
		t.Fatalf("unexpected draft payload: %s", encode(t, tree))
	}
	if loads != 1 {
		t.Fatalf("expected a single draft lookup, got %d", loads)
	}

	if strings.Contains(encode(t, normalize(t, n, form, normalizer.Request{})), `"draft"`) {
		t.Fatalf("anonymous requests must omit the draft block")
	}
	if strings.Contains(encode(t, normalize(t, normalizer.New(), form, normalizer.Request{})), `"draft"`) {
		t.Fatalf("no draft context must omit the draft block")
	}

	unknown := normalizer.New(normalizer.WithDraftLoader(normalizer.DraftLoaderFunc(func(context.Context, string, string) (*normalizer.Draft, error) {
		return &normalizer.Draft{SID: "43", CurrentPage: "gone"}, nil
	})))
	if idx := *normalize(t, unknown, form, member).Draft().PageIndex; idx != 0 {
		t.Fatalf("unknown page must map to index 0, got %d", idx)
	}

	noSubmission := normalize(t, normalizer.New(), form, member)
	if got := encode(t, noSubmission); !strings.Contains(got, `"draft":{"enable":true}`) {
		t.Fatalf("expected enable-only draft block, got %s", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	form := decode(t, wizard)
	n := normalizer.New()
	first := encode(t, normalize(t, n, form, member))
	second := encode(t, normalize(t, n, form, member))
	if first != second {
		t.Fatalf("normalization is not idempotent\nfirst  %s\nsecond %s", first, second)
	}
}

func TestNormalize_NoCrossRequestLeakage(t *testing.T) {
	form := decode(t, `
settings: {draft: authenticated}
elements:
  city: {'#type': textfield, '#default_value': Paris}
`)
	drafts := normalizer.DraftLoaderFunc(func(_ context.Context, userID, _ string) (*normalizer.Draft, error) {
		return &normalizer.Draft{SID: userID, Values: map[string]any{"city": "city-" + userID}}, nil
	})
	n := normalizer.New(normalizer.WithDraftLoader(drafts))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := string(rune('a' + i))
			req := normalizer.Request{Account: normalizer.Account{ID: userID, Authenticated: i%2 == 0}}
			tree, err := n.Normalize(context.Background(), form, req)
			if err != nil {
				errs <- err
				return
			}
			node, _ := tree.Field("city")
			want := "Paris"
			if req.Account.Authenticated {
				want = "city-" + userID
			}
			if node.DefaultValue != want {
				errs <- errors.New("user " + userID + " saw " + definition.ToString(node.DefaultValue))
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestNormalize_NestedActionsAndPages(t *testing.T) {
	form := decode(t, `
box:
  '#type': container
  inner_page:
    '#type': webform_wizard_page
    field: {'#type': textfield}
  submit:
    '#type': webform_actions
    '#title': Go
`)
	tree := normalize(t, normalizer.New(), form, normalizer.Request{})
	childs := field(t, tree, "box").Childs
	if diff := cmp.Diff([]string{"inner_page", "webform_preview"}, childs.Pages().Keys()); diff != "" {
		t.Fatalf("nested pages mismatch (-want +got):\n%s", diff)
	}
	action, ok := childs.Buttons().Action("submit")
	if !ok || action.Text != "Go" {
		t.Fatalf("expected nested action with title text, got %+v", action)
	}
	if childs.Buttons().Reset() != nil {
		t.Fatalf("reset button belongs to the root only")
	}
	if tree.Buttons().Reset() == nil {
		t.Fatalf("root must always carry a reset button")
	}
}

func TestNormalize_MappingErrors(t *testing.T) {
	failing := errors.New("backend down")
	cases := []struct {
		name string
		src  string
		opts []normalizer.Option
		key  string
		want error
	}{
		{
			name: "unmapped type",
			src:  "box:\n  '#type': container\n  weird: {'#type': webform_signature}\n",
			key:  "weird",
			want: normalizer.ErrUnmappedType,
		},
		{
			name: "missing type",
			src:  "untyped: {'#title': Hi}\n",
			key:  "untyped",
			want: normalizer.ErrUnmappedType,
		},
		{
			name: "unresolved selector",
			src:  "a:\n  '#type': textfield\n  '#states': {visible: {'.js-a': {checked: true}}}\n",
			key:  "a",
			want: normalizer.ErrUnresolvedSelector,
		},
		{
			name: "malformed conditions",
			src:  "a:\n  '#type': textfield\n  '#states': {visible: yes}\n",
			key:  "a",
			want: normalizer.ErrMalformedConditions,
		},
		{
			name: "reserved key",
			src:  "pages: {'#type': textfield}\n",
			key:  "pages",
			want: normalizer.ErrReservedKey,
		},
		{
			name: "preview page key",
			src:  "step_one: {'#type': webform_wizard_page, '#title': One}\nwebform_preview: {'#type': webform_wizard_page, '#title': Mine}\n",
			key:  "webform_preview",
			want: normalizer.ErrReservedKey,
		},
		{
			name: "unmapped type nested in a field",
			src:  "name:\n  '#type': textfield\n  inner: {'#type': bogus_type}\n",
			key:  "inner",
			want: normalizer.ErrUnmappedType,
		},
		{
			name: "field nested in a field",
			src:  "name:\n  '#type': textfield\n  inner: {'#type': textfield}\n",
			key:  "inner",
			want: normalizer.ErrUnexpectedChildren,
		},
		{
			name: "upload failure",
			src:  "cv: {'#type': webform_document_file}\n",
			opts: []normalizer.Option{normalizer.WithUploadPreparer(normalizer.UploadPreparerFunc(
				func(context.Context, *definition.Element, *definition.Form) (upload.Constraints, error) {
					return upload.Constraints{}, failing
				}))},
			key:  "cv",
			want: normalizer.ErrUpload,
		},
		{
			name: "vocabulary failure",
			src:  "tags: {'#type': webform_term_select, '#vocabulary': tags}\n",
			opts: []normalizer.Option{normalizer.WithVocabularyLoader(normalizer.VocabularyLoaderFunc(
				func(context.Context, string) ([]taxonomy.Term, error) { return nil, failing }))},
			key:  "tags",
			want: normalizer.ErrVocabulary,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := decode(t, tc.src)
			tree, err := normalizer.New(tc.opts...).Normalize(context.Background(), form, normalizer.Request{})
			if tree != nil {
				t.Fatalf("expected no partial schema")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			mappingErr, ok := normalizer.AsMappingError(err)
			if !ok {
				t.Fatalf("expected *MappingError, got %T", err)
			}
			if mappingErr.Key != tc.key {
				t.Fatalf("expected key %q, got %q", tc.key, mappingErr.Key)
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("error message must name the key: %v", err)
			}
		})
	}
}

func TestNormalize_DraftFailure(t *testing.T) {
	drafts := normalizer.DraftLoaderFunc(func(context.Context, string, string) (*normalizer.Draft, error) {
		return nil, errors.New("db down")
	})
	_, err := normalizer.New(normalizer.WithDraftLoader(drafts)).Normalize(context.Background(), decode(t, wizard), member)
	if !errors.Is(err, normalizer.ErrDraft) {
		t.Fatalf("expected ErrDraft, got %v", err)
	}
}

func TestNormalize_Translation(t *testing.T) {
	form := decode(t, `
settings: {form_reset: 1}
elements:
  mail: {'#type': email, '#title': Courriel, '#placeholder': Your email}
`)
	translator := normalizer.TranslatorFunc(func(locale, key string, args ...any) (string, error) {
		if locale != "fr" {
			return "", errors.New("unexpected locale")
		}
		switch key {
		case "Reset":
			return "Réinitialiser", nil
		case "Your email":
			return "Votre courriel", nil
		case "The field @field is not valid":
			return "Le champ Courriel n'est pas valide", nil
		}
		return "", errors.New("missing")
	})
	tree := normalize(t, normalizer.New(normalizer.WithTranslator(translator)), form, normalizer.Request{Locale: "fr"})
	mail := field(t, tree, "mail")
	if *mail.Placeholder != "Votre courriel" {
		t.Fatalf("unexpected placeholder %q", *mail.Placeholder)
	}
	if mail.Validation.PatternError != "Le champ Courriel n'est pas valide" {
		t.Fatalf("unexpected pattern error %q", mail.Validation.PatternError)
	}
	reset := tree.Buttons().Reset()
	if reset.Text != "Réinitialiser" || reset.Hidden {
		t.Fatalf("unexpected reset button %+v", reset)
	}
}

func TestNormalize_RejectsNilFormAndCancelledContext(t *testing.T) {
	if _, err := normalizer.New().Normalize(context.Background(), nil, normalizer.Request{}); err == nil {
		t.Fatalf("expected error for nil form")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := normalizer.New().Normalize(ctx, decode(t, wizard), normalizer.Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
