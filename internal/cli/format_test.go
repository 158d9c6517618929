package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sgx-labs/blog/internal/index"
	"github.com/sgx-labs/blog/internal/posts"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight pad = %q", got)
	}
	if got := padRight("héllo", 3); got != "hél" {
		t.Errorf("padRight truncate = %q", got)
	}
}

func TestPosts_UndatedAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	Posts(&buf, []posts.Post{{Slug: "draft", Meta: posts.PostMeta{Title: "Draft"}}})
	if !strings.Contains(buf.String(), "----------") || !strings.Contains(buf.String(), "Draft") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	Posts(&buf, nil)
	if !strings.Contains(buf.String(), "No posts.") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestCounts_Aligned(t *testing.T) {
	var buf bytes.Buffer
	Counts(&buf, []index.Count{{Name: "go", Count: 3}, {Name: "travel", Count: 1}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], margin+"go     ") {
		t.Errorf("first line not padded: %q", lines[0])
	}
}

func TestArchive(t *testing.T) {
	var buf bytes.Buffer
	Archive(&buf, []index.YearGroup{{
		Year: "2024",
		Months: []index.MonthGroup{{
			Month: "2024-06",
			Posts: []posts.Post{{Slug: "hello", Meta: posts.PostMeta{Title: "Hello"}}},
		}},
	}})
	out := buf.String()
	for _, want := range []string{"2024", "2024-06", "Hello", "(hello)"} {
		if !strings.Contains(out, want) {
			t.Errorf("archive output missing %q: %q", want, out)
		}
	}
}

func TestHeat(t *testing.T) {
	var buf bytes.Buffer
	Heat(&buf, []index.HeatEntry{{Post: posts.Post{Meta: posts.PostMeta{Title: "Popular"}}, Count: 1500}})
	if !strings.Contains(buf.String(), "1,500") || !strings.Contains(buf.String(), "1. ") {
		t.Errorf("heat output = %q", buf.String())
	}
}
