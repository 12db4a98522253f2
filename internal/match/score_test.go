package match

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name            string
		targetName      string
		candidateName   string
		targetArtist    string
		candidateArtist string
		want            float64
	}{
		{
			name:       "identical pair no markers",
			targetName: "红颜旧", candidateName: "红颜旧",
			targetArtist: "刘涛", candidateArtist: "刘涛",
			want: 80, // exact title 60 + artist 20
		},
		{
			name:       "nothing in common",
			targetName: "Nonsense Title Xyz123", candidateName: "Completely Different",
			targetArtist: "ArtistA", candidateArtist: "ArtistB",
			want: 0,
		},
		{
			name:       "soundtrack simplify match",
			targetName: "Movie OST", candidateName: "Movie Original Soundtrack",
			targetArtist: "ArtistA", candidateArtist: "ArtistA",
			want: 80, // simplified 40 + soundtrack 20 + artist 20
		},
		{
			name:       "exact title case insensitive",
			targetName: "movie ost", candidateName: "Movie OST",
			targetArtist: "", candidateArtist: "",
			want: 80, // exact 60 + soundtrack 20
		},
		{
			name:       "substring containment",
			targetName: "琅琊榜 (2015)", candidateName: "琅琊榜风起长林 电视原声带",
			targetArtist: "", candidateArtist: "群星",
			want: 20, // contained 20 only; empty target artist blocks term 5
		},
		{
			name:       "various artists with target artist",
			targetName: "琅琊榜 电视原声带", candidateName: "琅琊榜 电视原声带",
			targetArtist: "刘涛", candidateArtist: "群星",
			want: 100, // exact 60 + soundtrack 20 + various-artists 20
		},
		{
			name:       "various artists without target artist",
			targetName: "琅琊榜", candidateName: "琅琊榜",
			targetArtist: "", candidateArtist: "群星",
			want: 60, // artist term needs a non-empty target artist
		},
		{
			name:       "artist substring directional",
			targetName: "x", candidateName: "y",
			targetArtist: "刘涛", candidateArtist: "刘涛/胡歌",
			want: 20,
		},
		{
			name:       "artist substring wrong direction",
			targetName: "x", candidateName: "y",
			targetArtist: "刘涛/胡歌", candidateArtist: "刘涛",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.targetName, tt.candidateName, tt.targetArtist, tt.candidateArtist)
			if got != tt.want {
				t.Errorf("Score(%q, %q, %q, %q) = %v, want %v",
					tt.targetName, tt.candidateName, tt.targetArtist, tt.candidateArtist, got, tt.want)
			}
		})
	}
}

func TestScoreCeiling(t *testing.T) {
	got := Score("琅琊榜 电视原声带", "琅琊榜 电视原声带", "群星", "群星")
	if got != 100 {
		t.Errorf("Score = %v, want 100", got)
	}
}

func TestScoreTitleTermsExclusive(t *testing.T) {
	// Exact match must not also collect the simplified and containment terms.
	got := Score("红颜旧", "红颜旧", "", "")
	if got != 60 {
		t.Errorf("Score = %v, want 60 from the exact term alone", got)
	}
}
