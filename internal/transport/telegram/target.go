package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is a chat, optionally narrowed to a forum topic thread.
type Target struct {
	ChatID   int64
	ThreadID int
}

// ParseTarget parses "<chat_id>" or "<chat_id>:<thread_id>".
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("telegram: empty destination")
	}
	chat, thread, hasThread := strings.Cut(s, ":")
	id, err := strconv.ParseInt(strings.TrimSpace(chat), 10, 64)
	if err != nil || id == 0 {
		return Target{}, fmt.Errorf("telegram: invalid chat id %q", chat)
	}
	t := Target{ChatID: id}
	if hasThread {
		tid, err := strconv.Atoi(strings.TrimSpace(thread))
		if err != nil || tid < 0 {
			return Target{}, fmt.Errorf("telegram: invalid thread id %q", thread)
		}
		t.ThreadID = tid
	}
	return t, nil
}

func (t Target) String() string {
	if t.ThreadID != 0 {
		return strconv.FormatInt(t.ChatID, 10) + ":" + strconv.Itoa(t.ThreadID)
	}
	return strconv.FormatInt(t.ChatID, 10)
}
