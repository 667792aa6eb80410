// Package object implements the heap value types: interned strings,
// compiled functions, native functions, closures and upvalues.
//
// There is no collector. A Heap links every object it allocates into
// an intrusive list and drops the whole list at once on Reset; nothing
// in this package ever frees a single object in isolation.
package object
