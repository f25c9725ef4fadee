// Package dirstat provides directory statistics collection and analysis.
//
// Scan walks a reference document directory with an explicit stack, summing
// the size of every file and collecting the relative paths of files with a
// given extension. Run produces a broader breakdown by extension using
// fastwalk for parallel traversal and reports the largest files.
package dirstat
