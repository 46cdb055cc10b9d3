// Package behavior turns operant session files into a uniform Session
// model. Raw MedPC output and spreadsheet exports both land in the same
// structure: header metadata plus named event arrays keyed by semantic
// field names rather than single-letter variable labels.
//
// The mapping from labels to semantic names lives in a program registry
// loaded from YAML. An embedded default covers the standard training
// programs; deployments point dataset.registry_path at their own file to
// add programs or remap letters without a rebuild.
package behavior
