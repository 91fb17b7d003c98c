package models

import "testing"

func TestCollapseAdjacentMessages(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
		want     []string
	}{
		{
			name:     "empty",
			messages: nil,
			want:     []string{},
		},
		{
			name:     "no duplicates",
			messages: []string{"a", "b", "c"},
			want:     []string{"a", "b", "c"},
		},
		{
			name:     "adjacent run collapses",
			messages: []string{"a", "a", "a", "b"},
			want:     []string{"a", "b"},
		},
		{
			name:     "non-adjacent duplicates survive",
			messages: []string{"a", "b", "a"},
			want:     []string{"a", "b", "a"},
		},
		{
			name:     "multiple runs",
			messages: []string{"a", "a", "b", "b", "a"},
			want:     []string{"a", "b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifications := make([]Notification, 0, len(tt.messages))
			for _, m := range tt.messages {
				notifications = append(notifications, Notification{Message: m})
			}

			got := CollapseAdjacentMessages(notifications)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d notifications, got %d", len(tt.want), len(got))
			}
			for i, n := range got {
				if n.Message != tt.want[i] {
					t.Errorf("position %d: expected %q, got %q", i, tt.want[i], n.Message)
				}
			}
		})
	}
}
