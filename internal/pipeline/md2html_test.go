package pipeline

import (
	"context"
	"strings"
	"testing"
)

func TestGoldmarkConverter_ToFragment(t *testing.T) {
	t.Parallel()

	conv := NewGoldmarkConverter()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "heading gets id",
			input:        "## Publications",
			wantContains: []string{`<h2 id="publications">Publications</h2>`},
		},
		{
			name:         "gfm table",
			input:        "| Year | Title |\n|---|---|\n| 2024 | Paper |",
			wantContains: []string{"<table>", "<td>Paper</td>"},
		},
		{
			name:         "highlight placeholders become mark",
			input:        "a " + MarkStartPlaceholder + "b" + MarkEndPlaceholder,
			wantContains: []string{"<mark>b</mark>"},
		},
		{
			name:         "raw html escaped",
			input:        "<script>alert(1)</script>",
			wantExcludes: []string{"<script>"},
		},
		{
			name:         "code block uses classes",
			input:        "```go\nfunc main() {}\n```",
			wantContains: []string{`class="chroma"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := conv.ToFragment(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToFragment() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("missing %q in %s", want, got)
				}
			}
			for _, bad := range tt.wantExcludes {
				if strings.Contains(got, bad) {
					t.Errorf("unexpected %q in %s", bad, got)
				}
			}
		})
	}
}

func TestGoldmarkConverter_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewGoldmarkConverter().ToFragment(ctx, "# x"); err != context.Canceled {
		t.Errorf("ToFragment() error = %v, want context.Canceled", err)
	}
}
