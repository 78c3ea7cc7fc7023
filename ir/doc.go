// Package ir is the intermediate representation that loop analyses and
// transformations operate on.
//
// A Function is an ordered list of BasicBlocks, each holding an ordered list
// of Instructions. The set of instruction kinds is closed: BinOp, UnOp, Phi,
// If, Jump, Return and Opaque. Clients distinguish them with a type switch.
// Opaque carries any operation the front end does not model precisely; it
// is printed verbatim and never matched by transformations.
//
// Values are either constants (Const), function parameters (Param),
// references to things outside the function (Global), or the result of a
// value-producing instruction.
//
// The representation is produced from go/ssa by package lower, but can also
// be built by hand with NewFunction, NewBlock and Emit.
package ir
