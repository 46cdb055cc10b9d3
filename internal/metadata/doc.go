// Package metadata resolves the human-maintained context around a
// session: per-subject demographics from the lab's Excel workbook (sex,
// surgery, treatment, inferred viral construct) and experiment-wide study
// metadata from an editable YAML file (provenance text, optogenetic
// stimulus parameters per experimental group).
package metadata
