// Package main provides a program for scoring genomes with a trained gene cluster
// detector. Every stored sequence is scored position by position and the scores are
// written back to the database under the run id of the model. Without a database, a
// generated sequence with a planted cluster is scored and printed.
package main
