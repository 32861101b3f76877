package extract

import (
	"fmt"
	"testing"

	"github.com/pdiddy/hl7convert/pkg/types"
)

func TestCandidates(t *testing.T) {
	tests := []struct {
		name     string
		document string
		want     []string
	}{
		{
			name:     "single block",
			document: "# Messages\n\n```\nMSH|^~\\&|A\n```\n",
			want:     []string{"MSH|^~\\&|A"},
		},
		{
			name:     "two blocks in document order",
			document: "```\nfirst\n```\n\nprose between\n\n```\nsecond\n```\n",
			want:     []string{"first", "second"},
		},
		{
			name:     "adjacent blocks do not merge",
			document: "```\nA-content\n```\n```\nB-content\n```",
			want:     []string{"A-content", "B-content"},
		},
		{
			name:     "multiline block",
			document: "```\nMSH|^~\\&|A\nPID|1\nOBX|1\n```\n",
			want:     []string{"MSH|^~\\&|A\nPID|1\nOBX|1"},
		},
		{
			name:     "empty block",
			document: "```\n\n```",
			want:     []string{""},
		},
		{
			name:     "no fences",
			document: "plain text with no markers at all",
			want:     nil,
		},
		{
			name:     "empty document",
			document: "",
			want:     nil,
		},
		{
			name:     "trailing unmatched opener ignored",
			document: "```\ncomplete\n```\ntext\n```\ndangling",
			want:     []string{"complete"},
		},
		{
			name:     "language-tagged fence does not open a block",
			document: "```hl7\nnot opened\n```",
			want:     nil,
		},
		{
			name:     "fence inside prose line is not an opener",
			document: "inline ``` marker\n```\nblock\n```\n",
			want:     []string{"block"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(tt.document, types.ExtractConfig{})
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, want := range tt.want {
				if got[i].RawText != want {
					t.Errorf("candidate[%d].RawText = %q, want %q", i, got[i].RawText, want)
				}
				if got[i].Index != i+1 {
					t.Errorf("candidate[%d].Index = %d, want %d", i, got[i].Index, i+1)
				}
			}
		})
	}
}

func TestCandidatesCustomFence(t *testing.T) {
	doc := "~~~\ncontent\n~~~\n\n```\nbackticks ignored\n```\n"
	got := Candidates(doc, types.ExtractConfig{Fence: "~~~"})
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].RawText != "content" {
		t.Errorf("RawText = %q, want %q", got[0].RawText, "content")
	}
}

func TestCandidatesIdempotent(t *testing.T) {
	doc := "```\none\n```\nmiddle\n```\ntwo\n```\n```\nthree\n```\n"
	first := Candidates(doc, types.ExtractConfig{})
	second := Candidates(doc, types.ExtractConfig{})

	if len(first) != len(second) {
		t.Fatalf("runs disagree on count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("candidate[%d] differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// Fence handling on a hostile mix of markers stays deterministic even when
// counts get large.
func TestCandidatesManyBlocks(t *testing.T) {
	doc := ""
	for i := 1; i <= 50; i++ {
		doc += fmt.Sprintf("```\nmessage %d\n```\n", i)
	}
	got := Candidates(doc, types.ExtractConfig{})
	if len(got) != 50 {
		t.Fatalf("got %d candidates, want 50", len(got))
	}
	for i, c := range got {
		if c.Index != i+1 {
			t.Errorf("candidate[%d].Index = %d, want %d", i, c.Index, i+1)
		}
		if c.RawText != fmt.Sprintf("message %d", i+1) {
			t.Errorf("candidate[%d].RawText = %q", i, c.RawText)
		}
	}
}
