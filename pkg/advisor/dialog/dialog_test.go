package dialog

import (
	"strings"
	"testing"

	"berry-advisory-be/pkg/advisor/cultivar"
)

func TestIsClarifyingQuestion(t *testing.T) {
	h := DefaultClarificationHeuristic()

	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{
			name:  "short counter-question",
			reply: "Which cultivar do you grow, summer-bearing or remontant?",
			want:  true,
		},
		{
			name:  "short question mark only",
			reply: "How old are the bushes?",
			want:  true,
		},
		{
			name:  "marker phrase without question mark",
			reply: "Please clarify the age of your plants.",
			want:  true,
		},
		{
			name:  "short statement",
			reply: "Feed with a balanced NPK fertilizer in early spring.",
			want:  false,
		},
		{
			name:  "long answer with rhetorical question",
			reply: strings.Repeat("Mulch generously and water deeply. ", 20) + "Why does this matter?",
			want:  false,
		},
		{
			name:  "empty reply",
			reply: "  ",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.IsClarifyingQuestion(tt.reply); got != tt.want {
				t.Errorf("IsClarifyingQuestion(%q) = %v, want %v", tt.reply, got, tt.want)
			}
		})
	}
}

func TestMapCultivarTypeAnswer(t *testing.T) {
	tests := []struct {
		answer string
		want   string
		wantOk bool
	}{
		{"1", "strawberry, summer-bearing", true},
		{"2", "strawberry, remontant", true},
		{"remontant", "strawberry, remontant", true},
		{"the ordinary kind", "strawberry, summer-bearing", true},
		{"they fruit until frost, everbearing", "strawberry, remontant", true},
		{"no idea", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := MapCultivarTypeAnswer(cultivar.FamilyStrawberry, tt.answer)
		if got != tt.want || ok != tt.wantOk {
			t.Errorf("MapCultivarTypeAnswer(strawberry, %q) = (%q, %v), want (%q, %v)",
				tt.answer, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestDisambiguationQuestionNamesThePlant(t *testing.T) {
	q := DisambiguationQuestion(cultivar.FamilyRaspberry)
	if !strings.Contains(q, "raspberries") {
		t.Errorf("question does not name the plant: %q", q)
	}
	if !strings.Contains(q, "remontant") || !strings.Contains(q, "summer-bearing") {
		t.Errorf("question must offer both bearing types: %q", q)
	}
}

func TestParseGrowingParameters(t *testing.T) {
	tests := []struct {
		text     string
		location string
		env      string
	}{
		{"I grow in the middle band, open field", LocationMiddleBand, EnvironmentOpenField},
		{"southern regions, in a greenhouse", LocationSouthernRegions, EnvironmentGreenhouse},
		{"we are in siberia", LocationUralSiberia, ""},
		{"pots on the balcony", "", EnvironmentContainer},
		{"under film this year", "", EnvironmentCovered},
		{"nothing relevant here", "", ""},
	}

	for _, tt := range tests {
		loc, env := ParseGrowingParameters(tt.text)
		if loc != tt.location || env != tt.env {
			t.Errorf("ParseGrowingParameters(%q) = (%q, %q), want (%q, %q)",
				tt.text, loc, env, tt.location, tt.env)
		}
	}
}
