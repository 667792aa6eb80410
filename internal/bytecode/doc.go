// Package bytecode defines the instruction set, the chunk container
// that holds compiled code and its constant pool, and a disassembler
// that renders a chunk as a read-only text listing.
//
// A Chunk is produced by package compiler and consumed by package vm;
// this package knows the wire format of both but the semantics of
// neither.
package bytecode
