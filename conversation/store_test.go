package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type mockTimeProvider struct {
	currentTime time.Time
	mutex       sync.Mutex
}

func (mtp *mockTimeProvider) Now() time.Time {
	mtp.mutex.Lock()
	defer mtp.mutex.Unlock()
	return mtp.currentTime
}

func (mtp *mockTimeProvider) Add(d time.Duration) {
	mtp.mutex.Lock()
	mtp.currentTime = mtp.currentTime.Add(d)
	mtp.mutex.Unlock()
}

func TestAppendAndHistory(t *testing.T) {
	s := NewStore(time.Hour, nil)

	s.Append("conv_1", "What is Go?", "A programming language.")
	s.Append("conv_1", "Who made it?", "Google.")

	history := s.History("conv_1")
	if len(history) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(history))
	}
	if history[0].Role != "user" || history[0].Content != "What is Go?" {
		t.Errorf("unexpected first message: %+v", history[0])
	}
	if history[3].Role != "assistant" || history[3].Content != "Google." {
		t.Errorf("unexpected last message: %+v", history[3])
	}
}

func TestHistoryUnknownConversation(t *testing.T) {
	s := NewStore(time.Hour, nil)
	if got := s.History("missing"); got != nil {
		t.Errorf("expected nil history, got %v", got)
	}
}

func TestAppendEmptyIDIsNoop(t *testing.T) {
	s := NewStore(time.Hour, nil)
	s.Append("", "q", "a")
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d conversations", s.Len())
	}
}

func TestHistoryTrimmedToLastExchanges(t *testing.T) {
	s := NewStore(time.Hour, nil)

	for i := 0; i < 15; i++ {
		s.Append("conv_1", fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
	}

	history := s.History("conv_1")
	if len(history) != maxMessagesPerConversation {
		t.Fatalf("expected %d messages, got %d", maxMessagesPerConversation, len(history))
	}
	// Oldest surviving exchange should be number 5 (15 - 10)
	if history[0].Content != "question 5" {
		t.Errorf("expected oldest message to be question 5, got %q", history[0].Content)
	}
	if history[len(history)-1].Content != "answer 14" {
		t.Errorf("expected newest message to be answer 14, got %q", history[len(history)-1].Content)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore(time.Hour, nil)
	s.Append("conv_1", "q", "a")

	history := s.History("conv_1")
	history[0].Content = "mutated"

	if got := s.History("conv_1")[0].Content; got != "q" {
		t.Errorf("store history was mutated through the returned slice: %q", got)
	}
}

func TestCleanupEvictsExpiredConversations(t *testing.T) {
	mtp := &mockTimeProvider{currentTime: time.Now()}
	timeProvider = mtp
	defer func() { timeProvider = &realTimeProvider{} }()

	s := NewStore(30*time.Minute, nil)
	s.Append("stale", "q", "a")

	mtp.Add(20 * time.Minute)
	s.Append("fresh", "q", "a")

	mtp.Add(15 * time.Minute) // stale now idle 35m, fresh 15m
	s.performCleanup()

	if s.History("stale") != nil {
		t.Error("expected stale conversation to be evicted")
	}
	if s.History("fresh") == nil {
		t.Error("expected fresh conversation to survive cleanup")
	}
}

func TestConcurrentAppendAndCleanup(t *testing.T) {
	mtp := &mockTimeProvider{currentTime: time.Now()}
	timeProvider = mtp
	defer func() { timeProvider = &realTimeProvider{} }()

	s := NewStore(5*time.Minute, nil)
	s.StartCleanup(10 * time.Millisecond)
	defer s.StopCleanup()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("conv_%d", n%10)
			s.Append(id, "question", "answer")
			s.History(id)
		}(i)
	}
	wg.Wait()

	mtp.Add(10 * time.Minute)
	time.Sleep(50 * time.Millisecond) // let the cleanup goroutine observe the new time

	if s.Len() != 0 {
		t.Errorf("expected all conversations evicted, %d remain", s.Len())
	}
}
