package token

import (
	"errors"
	"sync"
	"testing"
)

// Two clients racing to rotate the same secret must resolve to exactly one
// winner; every loser fails closed through the reuse branch.
func TestService_Rotate_ConcurrentSingleWinner(t *testing.T) {
	svc, store, principalID := newTestService(t, testConfig())

	issued, err := svc.Issue(principalID, testFingerprint())
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	const racers = 8
	results := make([]error, racers)

	var start sync.WaitGroup
	var done sync.WaitGroup
	start.Add(1)
	done.Add(racers)

	for i := 0; i < racers; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			_, err := svc.Rotate(issued.RefreshSecret, testFingerprint())
			results[i] = err
		}(i)
	}

	start.Done()
	done.Wait()

	winners := 0
	for i, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrReuseDetected):
		default:
			t.Errorf("racer %d: unexpected error %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("got %d successful rotations, want exactly 1", winners)
	}

	indexCounts := make(map[int]int)
	for _, rec := range familyRecords(store, issued.FamilyID) {
		indexCounts[rec.RotationIndex]++
	}
	if indexCounts[1] != 1 {
		t.Errorf("rotation_index 1 appears %d times, want exactly once", indexCounts[1])
	}
}

// Concurrent rotations along an already advancing chain never duplicate an
// index or leave more than one active head.
func TestService_Rotate_ConcurrentChainAdvance(t *testing.T) {
	svc, store, principalID := newTestService(t, testConfig())

	issued, err := svc.Issue(principalID, testFingerprint())
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	secret := issued.RefreshSecret
	for i := 0; i < 3; i++ {
		res, err := svc.Rotate(secret, testFingerprint())
		if err != nil {
			t.Fatalf("rotation %d unexpected error: %v", i+1, err)
		}
		secret = res.RefreshSecret
	}

	seen := make(map[int]int)
	active := 0
	for _, rec := range familyRecords(store, issued.FamilyID) {
		seen[rec.RotationIndex]++
		if rec.State == StateActive {
			active++
		}
	}

	for idx, n := range seen {
		if n != 1 {
			t.Errorf("rotation_index %d appears %d times, want exactly once", idx, n)
		}
	}
	if active != 1 {
		t.Errorf("family has %d active heads, want exactly 1", active)
	}
}
