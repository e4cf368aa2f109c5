// Package steps contains the chain.Step implementations used by chainrun:
// Validate checks the input, Double computes the output and Save hands the
// output to a Sink.
//
// Steps communicate only through the context keys InputKey and OutputKey.
package steps
