package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/storage"
)

func TestRunRecordOverwrite(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	if _, err := s.LastRunRecord(ctx); !errors.Is(err, storage.ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}

	for _, task := range []string{"one", "two", "three"} {
		if err := s.SaveRunRecord(ctx, &api.RunRecord{Task: task}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.LastRunRecord(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Task != "three" {
		t.Errorf("task = %q, want three", got.Task)
	}
}

func TestLastRunRecordReturnsCopy(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	if err := s.SaveRunRecord(ctx, &api.RunRecord{Task: "original"}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.LastRunRecord(ctx)
	got.Task = "mutated"
	again, _ := s.LastRunRecord(ctx)
	if again.Task != "original" {
		t.Error("stored record was mutated through the returned pointer")
	}
}

func TestErrorRecordBound(t *testing.T) {
	s := New(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		err := s.AppendErrorRecord(ctx, api.ErrorRecord{
			Time:     time.Now(),
			Category: api.ErrorCategoryGeneral,
			Detail:   fmt.Sprintf("entry %d", i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.ListErrorRecords(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Detail != "entry 4" {
		t.Errorf("most recent first: got %q", got[0].Detail)
	}
	if got[2].Detail != "entry 2" {
		t.Errorf("oldest retained = %q, want entry 2", got[2].Detail)
	}
}

func TestListErrorRecordsLimit(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		s.AppendErrorRecord(ctx, api.ErrorRecord{Detail: fmt.Sprintf("e%d", i)})
	}
	got, err := s.ListErrorRecords(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New(100)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SaveRunRecord(ctx, &api.RunRecord{Task: fmt.Sprintf("t%d", i)})
			s.AppendErrorRecord(ctx, api.ErrorRecord{Detail: fmt.Sprintf("e%d", i)})
			s.LastRunRecord(ctx)
			s.ListErrorRecords(ctx, 5)
		}(i)
	}
	wg.Wait()
	got, err := s.ListErrorRecords(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 20 {
		t.Errorf("len = %d, want 20", len(got))
	}
}
