package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countingReporter struct {
	count atomic.Int64
}

func (r *countingReporter) Add(n int) error {
	r.count.Add(int64(n))
	return nil
}

func TestRunPreservesOrder(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	results, err := Run(context.Background(), items, 3, func(ctx context.Context, item int) (int, error) {
		return item * item, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, item := range items {
		if results[i] != item*item {
			t.Errorf("results[%d]=%d want=%d", i, results[i], item*item)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var inFlight, maxInFlight atomic.Int64
	items := make([]int, 50)

	_, err := Run(context.Background(), items, 4, func(ctx context.Context, item int) (struct{}, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if maxInFlight.Load() > 4 {
		t.Errorf("maxInFlight=%d want<=4", maxInFlight.Load())
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	items := []int{1, 2, 3}
	_, err := Run(context.Background(), items, 2, func(ctx context.Context, item int) (int, error) {
		if item == 2 {
			return 0, wantErr
		}
		return item, nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err=%v want=%v", err, wantErr)
	}
}

func TestRunWithEmptyItems(t *testing.T) {
	t.Parallel()

	results, err := Run(context.Background(), []int{}, 4, func(ctx context.Context, item int) (int, error) {
		t.Fatalf("fn should not be called for an empty item slice")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results=%v want empty", results)
	}
}

func TestRunWithProgressReportsOnePerItem(t *testing.T) {
	t.Parallel()

	var reporter countingReporter
	items := []int{1, 2, 3, 4, 5}
	_, err := RunWithProgress(context.Background(), items, 2, &reporter, func(ctx context.Context, item int) (int, error) {
		return item, nil
	})
	if err != nil {
		t.Fatalf("RunWithProgress failed: %v", err)
	}
	if reporter.count.Load() != int64(len(items)) {
		t.Errorf("reported count=%d want=%d", reporter.count.Load(), len(items))
	}
}

func TestRunWithProgressAcceptsNilReporter(t *testing.T) {
	t.Parallel()

	results, err := RunWithProgress[int, int](context.Background(), []int{1, 2, 3}, 2, nil, func(ctx context.Context, item int) (int, error) {
		return item * 2, nil
	})
	if err != nil {
		t.Fatalf("RunWithProgress failed: %v", err)
	}
	if len(results) != 3 || results[0] != 2 {
		t.Errorf("results=%v want=[2 4 6]", results)
	}
}
