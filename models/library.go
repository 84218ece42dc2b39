package models

// MovieSummary is the minimal projection of a library movie used for list
// views and the cheap filter stages. It excludes heavy fields like Overview
// and MediaSources.
type MovieSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Year            int      `json:"year,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	CommunityRating float64  `json:"rating,omitempty"`
	TMDBID          string   `json:"tmdbId,omitempty"`
	IMDBID          string   `json:"imdbId,omitempty"`
}

// Movie is the full projection of a library movie, including every alternate
// media source. A single title may carry multiple encodings (e.g. a 1080p
// remux and a 4K remux), so quality matching must consider all of them.
type Movie struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Year            int           `json:"year,omitempty"`
	Genres          []string      `json:"genres,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	CommunityRating float64       `json:"rating,omitempty"`
	CriticRating    float64       `json:"criticRating,omitempty"`
	Overview        string        `json:"overview,omitempty"`
	TMDBID          string        `json:"tmdbId,omitempty"`
	IMDBID          string        `json:"imdbId,omitempty"`
	Studios         []string      `json:"studios,omitempty"`
	PrimarySource   *MediaSource  `json:"primarySource,omitempty"`
	MediaSources    []MediaSource `json:"mediaSources,omitempty"`
}

// Summary reduces a Movie to its MovieSummary projection.
func (m *Movie) Summary() MovieSummary {
	return MovieSummary{
		ID:              m.ID,
		Name:            m.Name,
		Year:            m.Year,
		Genres:          m.Genres,
		Tags:            m.Tags,
		CommunityRating: m.CommunityRating,
		TMDBID:          m.TMDBID,
		IMDBID:          m.IMDBID,
	}
}

// Collection is a named grouping of movies (an Emby BoxSet). The Overview
// field holds human-authored prose and, optionally, one embedded sync
// criteria payload; the payload is opaque to Emby and round-tripped as-is.
type Collection struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Overview string   `json:"overview,omitempty"`
	ItemIDs  []string `json:"itemIds,omitempty"`
}
