// File: internal/conversation/classify_test.go
package conversation

import "testing"

func TestIsOutOfContext(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{"canonical reply", OutOfContextReply, true},
		{"mixed case", "This appears to be Out Of CONTEXT for the documents.", true},
		{"embedded in sentence", "I'm sorry, that's out of context here.", true},
		{"grounded answer", "The report covers Q3 revenue in section 2.", false},
		{"mentions context alone", "In the context of chapter one, the answer is yes.", false},
		{"empty reply", "", false},
		{"split across words", "out of our context window", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOutOfContext(tt.reply); got != tt.want {
				t.Errorf("IsOutOfContext(%q) = %v, want %v", tt.reply, got, tt.want)
			}
		})
	}
}
