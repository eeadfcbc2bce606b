package classify

import "testing"

func TestClassify(t *testing.T) {
	c := New()

	cases := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "team names alone suffice",
			text: "Will the Lakers beat the Celtics?",
			want: true,
		},
		{
			name: "league name alone suffices",
			text: "NFL season total points over 10000?",
			want: true,
		},
		{
			name: "multi-word league phrase",
			text: "Premier League title decided before April?",
			want: true,
		},
		{
			name: "generic keyword with context term",
			text: "Who will win the basketball championship game?",
			want: true,
		},
		{
			name: "generic keyword without context stays unclassified",
			text: "The football field dimensions are regulated",
			want: false,
		},
		{
			name: "no keywords at all",
			text: "Will the Fed cut rates in September?",
			want: false,
		},
		{
			name: "single word must match whole token",
			text: "Tension in the Golfo region escalates",
			want: false,
		},
		{
			name: "case insensitive",
			text: "SUPER BOWL winner announced",
			want: true,
		},
		{
			name: "empty text",
			text: "",
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.text)
			if got.Sports != tc.want {
				t.Errorf("Classify(%q).Sports = %v, want %v (matched %v)",
					tc.text, got.Sports, tc.want, got.Matched)
			}
			if tc.want && len(got.Matched) == 0 {
				t.Errorf("Classify(%q) classified with no matched terms", tc.text)
			}
			if !tc.want && len(got.Matched) != 0 {
				t.Errorf("Classify(%q) unclassified but matched %v", tc.text, got.Matched)
			}
		})
	}
}

func TestClassify_MatchedTermsReported(t *testing.T) {
	c := New()
	got := c.Classify("NBA finals: Celtics vs Lakers")

	want := map[string]bool{"nba": true, "celtics": true, "lakers": true}
	for _, term := range got.Matched {
		if !want[term] {
			t.Errorf("unexpected matched term %q", term)
		}
		delete(want, term)
	}
	if len(want) != 0 {
		t.Errorf("terms not reported: %v", want)
	}
}
