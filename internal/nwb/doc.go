// Package nwb defines the exchange bundle emitted for every converted
// session and its MessagePack serialization. The document model is
// deliberately dumb: plain slices and scalars with a fixed serialized
// order, assembled by the conversion layer and written atomically, one
// self-contained .nwbm file per session.
package nwb
