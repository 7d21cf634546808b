package workflow

import (
	"fmt"
	"strings"
	"time"
)

const commentTimestampLayout = "02/01/2006 15:04"

// AppendComment adds an administrator comment to the comments log. Blank text
// leaves the log untouched.
func AppendComment(log, author, text string, at time.Time, loc *time.Location) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return log
	}
	if loc == nil {
		loc = time.UTC
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = defaultHistoryActor
	}
	entry := fmt.Sprintf("[%s - %s]: %s", at.In(loc).Format(commentTimestampLayout), author, text)
	if strings.TrimSpace(log) == "" {
		return entry
	}
	return strings.TrimRight(log, "\n") + historyEntrySeparator + entry
}

// AutomaticStateComment is recorded when an administrator changes the state
// without writing a comment.
func AutomaticStateComment(from, to string) string {
	return fmt.Sprintf("Estado cambiado de '%s' a '%s'", from, to)
}

// SystemAuthor marks comments generated on behalf of author.
func SystemAuthor(author string) string {
	if strings.TrimSpace(author) == "" {
		author = defaultHistoryActor
	}
	return author + " (Sistema)"
}
