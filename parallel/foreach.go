// Package parallel runs loop bodies concurrently and fingerprints parameters
package parallel

import "sync"

// ForEach calls body for every i in [0, length) using at most limit
// goroutines at a time, and returns once all calls have returned. With a
// limit of one the loop runs on the calling goroutine, in order.
func ForEach(length, limit int, body func(i int)) {
	if length <= 0 {
		return
	}
	if limit <= 1 || length == 1 {
		for i := 0; i < length; i++ {
			body(i)
		}
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}
