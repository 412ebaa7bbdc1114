// Package main provides a program for training a gene cluster detector: a stateful
// bidirectional LSTM that scores every protein domain of a genome with the probability
// of belonging to a biosynthetic gene cluster. Training sequences are read from a SQLite
// database, or generated when no database is configured.
package main
