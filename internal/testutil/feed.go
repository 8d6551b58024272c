package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FeedHeader is the optional header line of an event file.
const FeedHeader = "timestamp,symbol,type,price,qty,side"

// Feed joins lines into event-file content, one per line, newline terminated.
func Feed(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteFeed writes lines to a file in a fresh temp directory and returns its
// path. The file is removed when the test ends.
func WriteFeed(t testing.TB, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.csv")
	if err := os.WriteFile(path, []byte(Feed(lines...)), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
	return path
}
