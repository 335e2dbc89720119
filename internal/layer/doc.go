// Package layer defines the core contracts of the stratum codec: the
// immutable Layer produced by decoding raw bytes, the mutable Builder used to
// stage and serialize new layers, and the discriminator registry that selects
// the decoder for each nested layer.
//
// # Layers
//
// A Layer is one protocol's parsed representation within a stack: a fixed
// header plus at most one nested payload, itself a Layer. Layers are immutable
// values. Serialize always succeeds and reproduces the original wire bytes
// exactly for layers that came out of a decode. Equality is byte equality of
// the serialized form.
//
// # Builders
//
// A Builder stages field values for one layer and produces an immutable Layer
// via Build. Builders may opt into correction-at-build through their
// CorrectionPolicy: a corrected length field is derived from the built payload
// rather than taken from the staged value, and a corrected checksum is
// computed from the serialized content. Disabling correction lets callers
// construct deliberately inconsistent packets for testing.
//
// # Registry
//
// Protocol packages register decoders against a (Class, discriminator) pair
// in their init functions:
//
//	func init() {
//	    layer.Register(layer.ClassEtherType, EtherType, decodeAdapter)
//	}
//
// Decode looks up the decoder for a discriminator and never fails: an
// unregistered discriminator yields an opaque Raw layer, and a decoder error
// yields a Malformed sentinel holding the undecoded bytes. Either way no
// bytes are lost and the enclosing decode completes.
//
// # Malformed containment
//
// When a nested decode fails, the failure is contained as a Malformed
// sentinel rather than aborting the outer decode. ContainsMalformed walks a
// decoded chain looking for sentinels, and SanitizedBuilder prepares a chain
// for rebuilding by replacing the sentinel with an opaque Raw payload and
// clearing every correction flag on the way down, so flagged bytes are never
// "fixed".
//
// # Thread safety
//
// Layers are immutable and safe for concurrent reads. Builders are
// single-owner and provide no synchronization. Registry lookups are safe
// during concurrent decoding; registration is expected at init time but late
// registration is tolerated.
package layer
