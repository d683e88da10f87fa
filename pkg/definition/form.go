package definition

// Draft modes understood by the draft loader. Only DraftAuthenticated loads
// stored submissions.
const (
	DraftNone          = "none"
	DraftAuthenticated = "authenticated"
	DraftAll           = "all"
)

// Form is a decoded webform definition.
type Form struct {
	ID       string
	Title    string
	Elements []*Element
	Settings Settings
}

// Settings captures the form-level settings the normalizer reads. Raw keeps
// the full settings mapping for callers that need anything else.
type Settings struct {
	Draft                   string
	DraftAutoSave           bool
	Preview                 int
	PreviewLabel            string
	PreviewTitle            string
	PreviewMessage          string
	PreviewExcludedElements *Map
	PreviewExcludeEmpty     bool
	WizardPrevButtonLabel   string
	WizardNextButtonLabel   string
	FormReset               bool
	Raw                     *Map
}

// Element looks up an element anywhere in the tree.
func (f *Form) Element(key string) (*Element, bool) {
	if f == nil {
		return nil, false
	}
	for _, el := range f.Elements {
		if el.Key == key {
			return el, true
		}
		if found, ok := el.Find(key); ok {
			return found, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the form.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	out := &Form{
		ID:       f.ID,
		Title:    f.Title,
		Settings: f.Settings,
	}
	out.Settings.PreviewExcludedElements = f.Settings.PreviewExcludedElements.Clone()
	out.Settings.Raw = f.Settings.Raw.Clone()
	if len(f.Elements) > 0 {
		out.Elements = make([]*Element, len(f.Elements))
		for idx, el := range f.Elements {
			out.Elements[idx] = el.Clone()
		}
	}
	return out
}

func settingsFromMap(raw *Map) Settings {
	if raw == nil {
		return Settings{}
	}
	str := func(key string) string {
		value, _ := raw.Get(key)
		return ToString(value)
	}
	flag := func(key string) bool {
		value, _ := raw.Get(key)
		return Truthy(value)
	}

	settings := Settings{
		Draft:                 str("draft"),
		DraftAutoSave:         flag("draft_auto_save"),
		PreviewLabel:          str("preview_label"),
		PreviewTitle:          str("preview_title"),
		PreviewMessage:        str("preview_message"),
		PreviewExcludeEmpty:   flag("preview_exclude_empty"),
		WizardPrevButtonLabel: str("wizard_prev_button_label"),
		WizardNextButtonLabel: str("wizard_next_button_label"),
		FormReset:             flag("form_reset"),
		Raw:                   raw,
	}
	if value, ok := raw.Get("preview"); ok {
		if n, ok := ToInt(value); ok {
			settings.Preview = n
		}
	}
	if value, ok := raw.Get("preview_excluded_elements"); ok {
		settings.PreviewExcludedElements = excludedElements(value)
	}
	return settings
}

// excludedElements accepts either the Drupal key => key mapping or a plain
// list of keys.
func excludedElements(value any) *Map {
	switch typed := value.(type) {
	case *Map:
		if typed.Len() == 0 {
			return nil
		}
		return typed
	case []any:
		if len(typed) == 0 {
			return nil
		}
		out := NewMap()
		for _, item := range typed {
			if key := ToString(item); key != "" {
				out.Set(key, key)
			}
		}
		return out
	default:
		return nil
	}
}
