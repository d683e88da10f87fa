// Package normalizer converts decoded webform definitions into the ordered UI
// schema trees consumed by front-end form renderers.
//
// A Normalizer is built once with its collaborators (selector resolution,
// token substitution, upload preparation, draft and vocabulary loading,
// translation) and is safe for concurrent use. Each Normalize call walks the
// element tree depth-first, dispatching on the element kind:
//
//   - webform_actions containers become entries of the tree's buttons block;
//   - layout containers (webform_flexbox, container, fieldset, details) become
//     nodes carrying their children under childs;
//   - wizard pages are collected under pages, followed by a synthetic preview
//     page;
//   - every other element is a leaf mapped through a static type table.
//
// Any element that cannot be mapped aborts the whole call with a
// *MappingError naming the element key and type.
package normalizer
