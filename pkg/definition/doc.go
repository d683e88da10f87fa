// Package definition models Drupal webform definitions: element trees whose
// "#"-prefixed keys are properties and whose remaining keys are children,
// plus the form-level settings that drive wizard pages, previews and drafts.
// Decoding goes through yaml.v3 nodes so element, option and condition order
// is preserved exactly as declared.
package definition
