// Package fixtures holds named values set up in one test phase for reuse in a
// later one.
//
// A Collection fails loudly with *UnknownKeyError when a key was never set,
// so a typo in test code surfaces at once instead of as an empty value. A
// Registry hands out one Collection per name and always returns the same
// pointer for the same name.
//
// Stores persist a Registry between processes:
//   - sqlite: a single table keyed by collection and key
//   - bbolt: one bucket per collection
package fixtures
