package normalizer

import "github.com/goliatone/go-webform/pkg/uischema"

// Source element types the normalizer treats specially.
const (
	TypeActions      = "webform_actions"
	TypeFlexbox      = "webform_flexbox"
	TypeContainer    = "container"
	TypeFieldset     = "fieldset"
	TypeDetails      = "details"
	TypeWizardPage   = "webform_wizard_page"
	TypeEmail        = "email"
	TypeEmailConfirm = "webform_email_confirm"
	TypeCaptcha      = "captcha"
	TypeTermSelect   = "webform_term_select"
)

// EmailPattern is the implicit client-side pattern of email fields.
const EmailPattern = `/^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,4}$/i`

var layoutTypes = map[string]struct{}{
	TypeFlexbox:   {},
	TypeContainer: {},
	TypeFieldset:  {},
	TypeDetails:   {},
}

var leafTypes = map[string]string{
	"textfield":                uischema.TypeText,
	TypeEmail:                  uischema.TypeText,
	TypeEmailConfirm:           uischema.TypeText,
	"url":                      uischema.TypeText,
	"tel":                      uischema.TypeText,
	"hidden":                   uischema.TypeText,
	"number":                   uischema.TypeNumber,
	"textarea":                 uischema.TypeTextArea,
	TypeCaptcha:                uischema.TypeCaptcha,
	"checkbox":                 uischema.TypeCheckbox,
	"webform_terms_of_service": uischema.TypeCheckbox,
	"select":                   uischema.TypeSelect,
	"webform_select_other":     uischema.TypeSelect,
	TypeTermSelect:             uischema.TypeSelect,
	"radios":                   uischema.TypeRadios,
	"webform_radios_other":     uischema.TypeRadios,
	"checkboxes":               uischema.TypeCheckboxes,
	"webform_buttons":          uischema.TypeCheckboxes,
	"webform_buttons_other":    uischema.TypeCheckboxes,
	"webform_checkboxes_other": uischema.TypeCheckboxes,
	"webform_document_file":    uischema.TypeUpload,
	"webform_image_file":       uischema.TypeUpload,
	"date":                     uischema.TypeDate,
	"webform_time":             uischema.TypeTime,
	"processed_text":           uischema.TypeRawHTML,
}

var htmlInputTypes = map[string]string{
	"tel":    "tel",
	"hidden": "hidden",
}

// LeafType returns the UI type a source element type maps to.
func LeafType(sourceType string) (string, bool) {
	uiType, ok := leafTypes[sourceType]
	return uiType, ok
}

// SupportedTypes lists every source type the normalizer maps to a leaf.
func SupportedTypes() []string {
	out := make([]string, 0, len(leafTypes))
	for sourceType := range leafTypes {
		out = append(out, sourceType)
	}
	return out
}
