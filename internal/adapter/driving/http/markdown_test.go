package httphandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{name: "empty", input: ""},
		{name: "bold", input: "Manage **NewsBreak** caps", contains: []string{"<strong>NewsBreak</strong>"}},
		{name: "emphasis", input: "*Developer > Access Token*", contains: []string{"<em>Developer &gt; Access Token</em>"}},
		{name: "link", input: "[docs](https://example.com)", contains: []string{`<a href="https://example.com"`, "docs</a>"}},
		{name: "strikethrough", input: "~~old~~", contains: []string{"<del>old</del>"}},
		{name: "script stripped", input: `<script>alert("xss")</script>`, excludes: []string{"<script>"}},
		{name: "event handler stripped", input: `<img src="x" onerror="alert(1)">`, excludes: []string{"onerror"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderMarkdown(tt.input)
			if tt.input == "" {
				assert.Equal(t, "", got)
			}
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}
