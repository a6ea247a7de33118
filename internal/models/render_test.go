package models_test

import (
	"strings"
	"testing"

	"github.com/cryptoai-assistant/web-ui/internal/models"
)

func TestNormalizeMath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "display math",
			in:   `\[x^2\]`,
			want: `$$x^2$$`,
		},
		{
			name: "inline math",
			in:   `\(x\)`,
			want: `$x$`,
		},
		{
			name: "plain text untouched",
			in:   "plain text",
			want: "plain text",
		},
		{
			name: "mixed delimiters in prose",
			in:   `The variance is \(\sigma^2\) and the sum is \[\sum_{i=1}^n x_i\].`,
			want: `The variance is $\sigma^2$ and the sum is $$\sum_{i=1}^n x_i$$.`,
		},
		{
			name: "already normalized",
			in:   `$$x^2$$ and $y$`,
			want: `$$x^2$$ and $y$`,
		},
		{
			name: "bare brackets are not math",
			in:   "prices [1, 2, 3] and (up 5%)",
			want: "prices [1, 2, 3] and (up 5%)",
		},
		{
			name: "unmatched opener passes through",
			in:   `broken \[x^2 with no closer`,
			want: `broken \[x^2 with no closer`,
		},
		{
			name: "display math spanning lines",
			in:   "\\[\nx^2\n\\]",
			want: "$$\nx^2\n$$",
		},
		{
			name: "empty string",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := models.NormalizeMath(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeMath(%q) = %q, want %q", tt.in, got, tt.want)
			}

			if again := models.NormalizeMath(got); again != got {
				t.Errorf("NormalizeMath is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestRenderContent(t *testing.T) {
	got, err := models.RenderContent("**BTC** is up, and \\(x^2\\) grows.")
	if err != nil {
		t.Fatalf("RenderContent() error = %v", err)
	}

	html := string(got)
	if !strings.Contains(html, "<strong>BTC</strong>") {
		t.Errorf("RenderContent() = %q, want bold markdown rendered", html)
	}
	if !strings.Contains(html, "$x^2$") {
		t.Errorf("RenderContent() = %q, want normalized math delimiters preserved", html)
	}
}
