package models

import "testing"

func TestVideoStreamResolution(t *testing.T) {
	tests := []struct {
		width int
		want  string
	}{
		{7680, Resolution4K},
		{3840, Resolution4K},
		{3839, Resolution1080p},
		{1920, Resolution1080p},
		{1919, Resolution720p},
		{1280, Resolution720p},
		{1279, Resolution480p},
		{720, Resolution480p},
		{719, ResolutionSD},
		{1, ResolutionSD},
	}
	for _, tt := range tests {
		v := &VideoStream{Width: tt.width}
		if got := v.Resolution(); got != tt.want {
			t.Errorf("width %d: got %q, want %q", tt.width, got, tt.want)
		}
	}
}

func TestVideoStreamResolutionUnknown(t *testing.T) {
	var nilStream *VideoStream
	if got := nilStream.Resolution(); got != ResolutionUnknown {
		t.Errorf("nil stream: got %q, want %q", got, ResolutionUnknown)
	}
	zero := &VideoStream{}
	if got := zero.Resolution(); got != ResolutionUnknown {
		t.Errorf("zero width: got %q, want %q", got, ResolutionUnknown)
	}
}

func TestMovieSummaryProjection(t *testing.T) {
	movie := &Movie{
		ID: "1", Name: "Test", Year: 1987,
		Genres: []string{"Horror"}, Tags: []string{"campy"},
		CommunityRating: 6.2, TMDBID: "42", IMDBID: "tt0001",
		Overview:     "should not carry over",
		MediaSources: []MediaSource{{Container: "mkv"}},
	}
	summary := movie.Summary()
	if summary.ID != "1" || summary.Name != "Test" || summary.Year != 1987 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.TMDBID != "42" || summary.CommunityRating != 6.2 {
		t.Fatalf("unexpected summary ids/rating: %+v", summary)
	}
}
