// Package engine rewrites the methods of a class file.
//
// Rewrite pipeline:
//  1. Parse the class, select target methods
//  2. For each target, decide whether the prologue is already present
//  3. Stream the method through the reader into a writer, splicing the prologue in
//     where it is missing
//  4. Keep untargeted methods as they are, encode the class
package engine
