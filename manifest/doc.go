// Package manifest assembles runners from declarative pipeline documents.
//
// A document names a pipeline, seeds it with vars, and lists calls against
// handlers registered by name. Documents are written in HCL or YAML; both
// formats parse into the same Document model and build identical runners.
// Points in the manifest world are always named markers, since Go types are
// not nameable from configuration.
package manifest
