// Package enc implements the marshal format engine; tag dispatch, the symbol and link tables, and the
// encoding of the built-in composites.
//
// A Writer turns values into bytes and a Reader turns bytes back into values. Both keep a symbol table and a
// link table that live for one value and are cleared by Reset. Tags the engine does not know about are handed to
// Extensions, and class names read from the stream are resolved by an Adapter.
package enc

// Format version written at the start of every stream.
const (
	MajorVersion = 4
	MinorVersion = 8
)

// Tag bytes of the core vocabulary.
const (
	TagNil         = '0'
	TagTrue        = 'T'
	TagFalse       = 'F'
	TagInteger     = 'i'
	TagBignum      = 'l'
	TagFloat       = 'f'
	TagString      = '"'
	TagSymbol      = ':'
	TagSymlink     = ';'
	TagLink        = '@'
	TagArray       = '['
	TagHash        = '{'
	TagHashDefault = '}'
	TagUserClass   = 'C'
	TagIVars       = 'I'
)

// coreTags may not be claimed by an Extension.
var coreTags = [...]byte{
	TagNil, TagTrue, TagFalse, TagInteger, TagBignum, TagFloat, TagString, TagSymbol, TagSymlink,
	TagLink, TagArray, TagHash, TagHashDefault, TagUserClass, TagIVars,
}

// Instance variable names with special meaning on strings, regexps and symbols.
const (
	// IVarEncodingFlag marks a string as UTF-8 (true) or US-ASCII (false).
	IVarEncodingFlag = "E"
	// IVarEncodingName carries the name of any other encoding.
	IVarEncodingName = "encoding"
)
