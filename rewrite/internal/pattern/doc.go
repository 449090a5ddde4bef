// Package pattern compares instruction streams structurally.
//
// Label references are replaced by ids assigned in first-seen order, so a pattern
// recorded from a template matches a real method body that introduces its labels in
// the same relative order, regardless of label identity.
package pattern
