package titles

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantArtist string
		wantTitle  string
	}{
		{"dash", "Daft Punk - One More Time", "Daft Punk", "One More Time"},
		{"pipe", "Kavinsky | Nightcall", "Kavinsky", "Nightcall"},
		{"en_dash", "Justice – Genesis", "Justice", "Genesis"},
		{"em_dash", "Air — La Femme d'Argent", "Air", "La Femme d'Argent"},
		{"dash_wins_over_pipe", "A - B | C", "A", "B | C"},
		{"extra_whitespace", "  Moderat   -   A New Error  ", "Moderat", "A New Error"},
		{"official_video", "Daft Punk - One More Time (Official Video)", "Daft Punk", "One More Time"},
		{"bracket_audio", "Kavinsky - Nightcall [Official Audio]", "Kavinsky", "Nightcall"},
		{"lyric_video", "Justice - D.A.N.C.E. (Lyric Video)", "Justice", "D.A.N.C.E."},
		{"case_insensitive_annotation", "Artist - Song (OFFICIAL VIDEO)", "Artist", "Song"},
		{"no_separator", "Some Mix Chapter", "", "Some Mix Chapter"},
		{"no_separator_trimmed", "  Plain Title  ", "", "Plain Title"},
		{"hyphen_without_spaces", "Jay-Z", "", "Jay-Z"},
		{"empty_left_segment", " - Title Only", "", "- Title Only"},
		{"empty_right_segment", "Artist - ", "", "Artist -"},
		{"unicode", "Röyksopp - Eple", "Röyksopp", "Eple"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Artist != tt.wantArtist || got.Title != tt.wantTitle {
				t.Errorf("Parse(%q) = (%q, %q); want (%q, %q)",
					tt.raw, got.Artist, got.Title, tt.wantArtist, tt.wantTitle)
			}
			if got.Raw != tt.raw {
				t.Errorf("Parse(%q).Raw = %q; want the input preserved", tt.raw, got.Raw)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		pt   ParsedTitle
		want string
	}{
		{"with_artist", ParsedTitle{Artist: "A", Title: "B"}, "A - B"},
		{"without_artist", ParsedTitle{Title: "Chapter"}, "Chapter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pt.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	a := ParsedTitle{Artist: "Daft  Punk", Title: " One More Time"}
	b := ParsedTitle{Artist: "daft punk", Title: "ONE MORE TIME"}
	if NormalizeKey(a) != NormalizeKey(b) {
		t.Errorf("keys differ: %q vs %q", NormalizeKey(a), NormalizeKey(b))
	}

	c := ParsedTitle{Title: "One More Time"}
	if NormalizeKey(a) == NormalizeKey(c) {
		t.Error("artist-less key should differ from keyed artist")
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "Artist - Title", "Artist - Title"},
		{"slashes", "AC/DC - Back In Black", "ACDC - Back In Black"},
		{"reserved", `What? "Quotes": <Here> | There*`, "What Quotes Here  There"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeFilename(tt.in); got != tt.want {
				t.Errorf("SafeFilename(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}
