// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// This file contains tests with concurrent producer/consumer goroutines.
// These trigger false positives with Go's race detector because lock-free
// queue synchronization uses atomic rank/gap orderings the detector cannot
// see. The tests are correct; they're excluded from race testing.

package ringq_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/ringq"
)

func TestSPSCOrderStress(t *testing.T) {
	const n = 1_000_000
	q := ringq.NewSPSC[int](256)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range n {
			v := i
			if err := q.Enqueue(&v); err != nil {
				t.Errorf("Enqueue(%d): %v", i, err)
				return
			}
		}
	}()

	for i := range n {
		var got int
		for {
			v, err := q.Dequeue()
			if err == nil {
				got = v
				break
			}
		}
		if got != i {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, got, i)
		}
	}

	wg.Wait()
}

func TestSPMCConcurrentFanOut(t *testing.T) {
	const n = 20000
	const consumers = 4
	q := ringq.NewSPMC[int](256)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range n {
			v := i
			if err := q.Enqueue(&v); err != nil {
				t.Errorf("Enqueue(%d): %v", i, err)
				return
			}
		}
	}()

	seen := make([]bool, n)
	var mu sync.Mutex
	var consumed int

	wg.Add(consumers)
	for range consumers {
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				done := consumed >= n
				mu.Unlock()
				if done {
					return
				}
				v, err := q.Dequeue()
				if err != nil {
					continue
				}
				mu.Lock()
				if v >= 0 && v < n && !seen[v] {
					seen[v] = true
					consumed++
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	for i, ok := range seen {
		if !ok {
			t.Fatalf("value %d never delivered", i)
		}
	}
}

func TestMPMCConcurrentFanInFanOut(t *testing.T) {
	const producers = 4
	const perProducer = 5000
	const consumers = 4
	const total = producers * perProducer

	q := ringq.NewMPMC[int](256)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := range producers {
		go func(p int) {
			defer wg.Done()
			base := p * perProducer
			for i := range perProducer {
				v := base + i
				if err := q.Enqueue(&v); err != nil {
					t.Errorf("Enqueue(%d): %v", v, err)
					return
				}
			}
		}(p)
	}

	seen := make([]bool, total)
	var mu sync.Mutex
	var consumed int

	wg.Add(consumers)
	for range consumers {
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				done := consumed >= total
				mu.Unlock()
				if done {
					return
				}
				v, err := q.Dequeue()
				if err != nil {
					continue
				}
				mu.Lock()
				if v >= 0 && v < total && !seen[v] {
					seen[v] = true
					consumed++
				} else if seen[v] {
					mu.Unlock()
					t.Fatalf("value %d delivered more than once", v)
					return
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	for i, ok := range seen {
		if !ok {
			t.Fatalf("value %d never delivered", i)
		}
	}
}

func TestMPMCTwoProducerContention(t *testing.T) {
	const perProducer = 10000
	q := ringq.NewMPMC[int](4) // small ring forces heavy slot contention

	var wg sync.WaitGroup
	wg.Add(2)
	for p := range 2 {
		go func(p int) {
			defer wg.Done()
			for i := range perProducer {
				v := p*perProducer + i
				if err := q.Enqueue(&v); err != nil {
					t.Errorf("Enqueue: %v", err)
					return
				}
			}
		}(p)
	}

	var consumed int
	var mu sync.Mutex
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			if _, err := q.Dequeue(); err == nil {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}
	}()

	wg.Wait()
	for {
		mu.Lock()
		c := consumed
		mu.Unlock()
		if c >= 2*perProducer {
			break
		}
	}
	close(done)
}

func TestMPSCConcurrentFanIn(t *testing.T) {
	const producers = 4
	const perProducer = 5000
	const total = producers * perProducer

	q := ringq.NewMPSC[int](256)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := range producers {
		go func(p int) {
			defer wg.Done()
			base := p * perProducer
			for i := range perProducer {
				v := base + i
				if err := q.Enqueue(&v); err != nil {
					t.Errorf("Enqueue(%d): %v", v, err)
					return
				}
			}
		}(p)
	}

	consumerDone := make(chan struct{})
	seen := make([]bool, total)
	var consumed int
	go func() {
		defer close(consumerDone)
		for consumed < total {
			v, err := q.Dequeue()
			if err != nil {
				continue
			}
			if v < 0 || v >= total || seen[v] {
				continue
			}
			seen[v] = true
			consumed++
		}
	}()

	wg.Wait()
	<-consumerDone

	for i, ok := range seen {
		if !ok {
			t.Fatalf("value %d never delivered", i)
		}
	}
}
