// Package encoding provides the low-level byte encoder and decoder shared by
// the binary serializers and the .mdb file payload.
//
// VarStringEncoder appends uvarint-length strings, uvarints and fixed-width
// values in the byte order of its EndianEngine. VarStringDecoder reads them
// back and records the first failure instead of returning an error from
// every call:
//
//	dec := encoding.NewVarStringDecoder(data, engine)
//	name := dec.Read()
//	count := dec.ReadCount()
//	if err := dec.Err(); err != nil {
//	    return err
//	}
//
// Decoding errors wrap errs.ErrMalformedPayload.
package encoding
