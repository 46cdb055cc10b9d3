// Package convert assembles one session's exchange bundle: behavioral
// events from a MedPC log or spreadsheet export, the paired fiber
// photometry recording when one exists, optogenetic stimulation trains,
// and subject and study metadata, written as a single bundle file.
package convert
