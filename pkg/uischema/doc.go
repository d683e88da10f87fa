// Package uischema defines the UI schema tree produced from webform
// definitions. Trees keep the declaration order of their entries when encoded
// to JSON: fields, the pages collection, the buttons block, the draft block
// and flexTotal appear where they were first added, which lets front ends
// render fields and wizard pages in authoring order.
package uischema
