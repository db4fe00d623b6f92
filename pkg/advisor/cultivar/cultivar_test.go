package cultivar

import "testing"

func TestDetectKeyword(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "single family no qualifier",
			text: "how should I feed my raspberries in spring?",
			want: "raspberry, general",
		},
		{
			name: "family plus remontant qualifier",
			text: "pruning remontant raspberry canes",
			want: "raspberry, remontant",
		},
		{
			name: "family plus summer qualifier",
			text: "my june-bearing strawberry plants look pale",
			want: "strawberry, summer-bearing",
		},
		{
			name: "ordinary counts as summer-bearing",
			text: "ordinary strawberry fertilizer schedule",
			want: "strawberry, summer-bearing",
		},
		{
			name: "two families collapse to general information",
			text: "compare strawberry and blueberry soil acidity",
			want: GeneralInformation,
		},
		{
			name: "unqualified single-label family",
			text: "when to plant gooseberry",
			want: FamilyGooseberry,
		},
		{
			name: "generic berry talk without family",
			text: "what berries grow best in shade",
			want: GeneralInformation,
		},
		{
			name: "qualifier alone never invents a family",
			text: "is remontant better than ordinary?",
			want: GeneralInformation,
		},
		{
			name: "unrelated text",
			text: "how do I fix my tractor engine",
			want: Undetermined,
		},
		{
			name: "empty input",
			text: "   ",
			want: Undetermined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectKeyword(tt.text); got != tt.want {
				t.Errorf("DetectKeyword(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Strawberry, remontant", "strawberry, remontant"},
		{"**Garden strawberry**", "strawberry, general"},
		{"raspberry", "raspberry, general"},
		{"Remontant raspberry.", "raspberry, remontant"},
		{"Blackcurrant", FamilyCurrant},
		{"red currant", FamilyCurrant},
		{"blueberry", FamilyBlueberry},
		{"haskap", FamilyHoneysuckle},
		{"General information", GeneralInformation},
		{"unknown", Undetermined},
		{"", Undetermined},
		{"The question is about a number of different things and none of them are plants at all", Undetermined},
		{"sea buckthorn", "sea buckthorn"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestGeneralLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"raspberry, remontant", "raspberry, general"},
		{"raspberry, summer-bearing", "raspberry, general"},
		{"raspberry, general", "raspberry, general"},
		{"strawberry, remontant", "strawberry, general"},
		{FamilyBlueberry, FamilyBlueberry},
		{FamilyCurrant, FamilyCurrant},
		{GeneralInformation, GeneralInformation},
	}

	for _, tt := range tests {
		if got := GeneralLabel(tt.label); got != tt.want {
			t.Errorf("GeneralLabel(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestNeedsTypeClarification(t *testing.T) {
	if !NeedsTypeClarification("strawberry, general") {
		t.Error("strawberry, general should need the bearing-type question")
	}
	if !NeedsTypeClarification("raspberry, general") {
		t.Error("raspberry, general should need the bearing-type question")
	}
	if NeedsTypeClarification("raspberry, remontant") {
		t.Error("raspberry, remontant is already disambiguated")
	}
	if NeedsTypeClarification(FamilyBlueberry) {
		t.Error("blueberry has no bearing types")
	}
	if NeedsTypeClarification(GeneralInformation) {
		t.Error("sentinels never need the bearing-type question")
	}
}

func TestIsSpecific(t *testing.T) {
	for label, want := range map[string]bool{
		"strawberry, remontant": true,
		"raspberry, general":    false,
		FamilyGooseberry:        true,
		GeneralInformation:      false,
		Undetermined:            false,
		"":                      false,
	} {
		if got := IsSpecific(label); got != want {
			t.Errorf("IsSpecific(%q) = %v, want %v", label, got, want)
		}
	}
}
