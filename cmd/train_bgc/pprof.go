package main

import "os"
import "runtime/pprof"

import "github.com/sirupsen/logrus"

// profile collects a CPU profile into default.pgo until the returned function
// is called.
func profile(logger *logrus.Logger) (stop func()) {
	f, err := os.Create("default.pgo")
	if err != nil {
		logger.WithError(err).Warn("Cannot create CPU profile")
		return func() {}
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		logger.WithError(err).Warn("Cannot start CPU profile")
		f.Close()
		return func() {}
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}
}
