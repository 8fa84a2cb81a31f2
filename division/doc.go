// Package division computes pupil-to-class divisions.
//
// Process applies an ordered batch of assignments to a snapshot of pupils and
// classes and returns a new snapshot; Diff reports which pupils and classes
// differ between two snapshots. Both are pure functions over in-memory values:
// they perform no I/O and hold no state between calls, so serialising writers
// against a shared store is left to the caller.
//
// Ordering rules:
//
//   - A pupil moved into a class takes follow-up number 1 and every pupil
//     already in that class moves back by one.
//   - A pupil leaving a class closes its gap: classmates behind it move up by one.
//
// Pupils reference classes by name (models.Pupil.ClassName), so class names must
// not change while a batch is processed.
package division
