package store

import "sync"

// Feed is the management notification channel: plain strings, newest first,
// cleared wholesale. One feed is shared across the session layer; individual
// entries are never removed.
type Feed struct {
	mu       sync.Mutex
	messages []string
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) Push(message string) {
	if f == nil || message == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append([]string{message}, f.messages...)
}

func (f *Feed) All() []string {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *Feed) Clear() {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
}

func (f *Feed) Len() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}
