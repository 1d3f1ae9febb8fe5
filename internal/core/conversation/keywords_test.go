package conversation

import "testing"

func TestHasComparisonCue(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"Which one is quicker?", true},
		{"which is healthier", true},
		{"What's the prep time for these?", true},
		{"Is the lasagna easier to make?", true},
		{"I want Italian food", false},
		{"Show me breakfast recipes", false},
	}
	for _, tt := range tests {
		if got := HasComparisonCue(tt.message); got != tt.want {
			t.Errorf("HasComparisonCue(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestHasExplicitRecipeCue(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"Give me the recipe for the first one", true},
		{"I'll take the lasagna", true},
		{"let's go with the pizza", true},
		{"How do I make carbonara?", true},
		{"Which one is better?", false},
		{"thanks, you're amazing", false},
	}
	for _, tt := range tests {
		if got := HasExplicitRecipeCue(tt.message); got != tt.want {
			t.Errorf("HasExplicitRecipeCue(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestOrdinalReference(t *testing.T) {
	tests := []struct {
		message string
		limit   int
		wantIdx int
		wantOK  bool
	}{
		{"the first one", 3, 0, true},
		{"show me the second option!", 3, 1, true},
		{"the third one please", 3, 2, true},
		{"option 2", 3, 1, true},
		// 超出清單長度的序數不算命中
		{"the third one", 2, 0, false},
		{"I want pasta", 3, 0, false},
		{"the first one", 0, 0, false},
	}
	for _, tt := range tests {
		idx, ok := OrdinalReference(tt.message, tt.limit)
		if ok != tt.wantOK || (ok && idx != tt.wantIdx) {
			t.Errorf("OrdinalReference(%q, %d) = (%d, %v), want (%d, %v)",
				tt.message, tt.limit, idx, ok, tt.wantIdx, tt.wantOK)
		}
	}
}
