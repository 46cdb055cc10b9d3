// Package westernblot splits the combined western-blot gel images into
// their wild-type and DAT-cKO halves and wraps each half in an exchange
// bundle. Blot images carry no recording session of their own; bundles use
// the paper's publication date as the session start and infer sex from the
// image file name.
package westernblot
