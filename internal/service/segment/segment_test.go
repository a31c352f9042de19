package segment

import (
	"strconv"
	"strings"
	"sync"
	"testing"
)

func TestGenerator_Next(t *testing.T) {
	gen := New()

	tests := []struct {
		channel string
		want    string
	}{
		{"speech", "speech-seg-1"},
		{"speech", "speech-seg-2"},
		{"support", "support-seg-3"},
	}

	for _, tt := range tests {
		if got := gen.Next(tt.channel); got != tt.want {
			t.Errorf("Next(%q) = %s, want %s", tt.channel, got, tt.want)
		}
	}
}

func TestGenerator_ConcurrentUnique(t *testing.T) {
	gen := New()
	workers, perWorker := 50, 20

	var wg sync.WaitGroup
	ids := make(chan string, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- gen.Next("speech")
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate segment ID: %s", id)
		}
		seen[id] = true
	}
	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}

func TestGenerator_Monotonic(t *testing.T) {
	gen := New()

	prev := 0
	for i := 0; i < 50; i++ {
		id := gen.Next("speech")
		n, err := strconv.Atoi(id[strings.LastIndex(id, "-")+1:])
		if err != nil {
			t.Fatalf("malformed segment ID %s: %v", id, err)
		}
		if n <= prev {
			t.Errorf("counter not monotonic: %d <= %d", n, prev)
		}
		prev = n
	}
}
