// Package sync implements the criteria-based collection synchronization
// engine: the embedded criteria codec, the quality-match predicate, and the
// batch reconciliation loop that converges collection membership.
package sync

import (
	"encoding/json"
	"strings"
)

// Criteria payloads are embedded in a collection's overview between these
// markers. They render as an HTML comment, so common rich-text viewers hide
// them, and they are unlikely to occur in natural prose.
const (
	criteriaMarker = "<!-- SYNC_CRITERIA:"
	criteriaEnd    = ":END_CRITERIA -->"
)

// Criteria is the declarative filter specification driving automatic sync.
// Absent fields are omitted from the encoded payload. When a Trakt list
// reference is set it replaces all other filtering and switches the engine
// into additive-only mode.
type Criteria struct {
	Genres         []string `json:"genres,omitempty"`
	MinYear        int      `json:"min_year,omitempty"`
	MaxYear        int      `json:"max_year,omitempty"`
	MinRating      float64  `json:"min_rating,omitempty"`
	MaxRating      float64  `json:"max_rating,omitempty"`
	MinBMovieScore *float64 `json:"min_b_movie_score,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`

	Resolution    string   `json:"resolution,omitempty"`
	HDRTypes      []string `json:"hdr_types,omitempty"`
	DVProfiles    []int    `json:"dv_profiles,omitempty"`
	DVLayer       string   `json:"dv_layer,omitempty"`
	AudioFormats  []string `json:"audio_formats,omitempty"`
	LosslessAudio bool     `json:"lossless_audio,omitempty"`

	TraktListUser string `json:"trakt_list_user,omitempty"`
	TraktListSlug string `json:"trakt_list_slug,omitempty"`
}

// UsesTraktList reports whether the criteria reference an external Trakt list.
func (c *Criteria) UsesTraktList() bool {
	return c.TraktListUser != "" && c.TraktListSlug != ""
}

// HasVideoConstraints reports whether any video-side quality constraint is set.
func (c *Criteria) HasVideoConstraints() bool {
	return c.Resolution != "" || len(c.HDRTypes) > 0 || len(c.DVProfiles) > 0 || c.DVLayer != ""
}

// HasAudioConstraints reports whether any audio-side quality constraint is set.
func (c *Criteria) HasAudioConstraints() bool {
	return c.LosslessAudio || len(c.AudioFormats) > 0
}

// HasQualityConstraints reports whether matching needs the full media-source
// detail of each candidate.
func (c *Criteria) HasQualityConstraints() bool {
	return c.HasVideoConstraints() || c.HasAudioConstraints()
}

// HasEnrichmentConstraints reports whether matching needs an external
// metadata lookup per candidate.
func (c *Criteria) HasEnrichmentConstraints() bool {
	return c.MinBMovieScore != nil || len(c.Keywords) > 0
}

// EncodeCriteria embeds criteria into an overview text. A non-empty
// description is kept as leading prose; encode always rewrites the whole
// field, so any previous payload is replaced wholesale.
func EncodeCriteria(criteria *Criteria, description string) (string, error) {
	payload, err := json.Marshal(criteria)
	if err != nil {
		return "", err
	}
	encoded := criteriaMarker + string(payload) + criteriaEnd
	if description == "" {
		return encoded, nil
	}
	return description + "\n\n" + encoded, nil
}

// criteriaSpan locates the first marker...end span. Returns the index of the
// marker, the payload between the delimiters, and whether a complete span
// exists. The end delimiter is matched non-greedily: the first occurrence
// after the marker wins.
func criteriaSpan(text string) (start int, payload string, ok bool) {
	start = strings.Index(text, criteriaMarker)
	if start < 0 {
		return 0, "", false
	}
	rest := text[start+len(criteriaMarker):]
	end := strings.Index(rest, criteriaEnd)
	if end < 0 {
		return 0, "", false
	}
	return start, rest[:end], true
}

// DecodeCriteria extracts criteria from an overview. Returns nil when no
// payload is embedded or the payload is not valid JSON: malformed state is
// treated as absent, never as an error, and is discarded on the next encode.
func DecodeCriteria(overview string) *Criteria {
	_, payload, ok := criteriaSpan(overview)
	if !ok {
		return nil
	}
	var criteria Criteria
	if err := json.Unmarshal([]byte(payload), &criteria); err != nil {
		return nil
	}
	return &criteria
}

// StripCriteria removes the embedded payload from an overview for
// human-facing display, trimming surrounding whitespace.
func StripCriteria(overview string) string {
	start, payload, ok := criteriaSpan(overview)
	if !ok {
		return strings.TrimSpace(overview)
	}
	end := start + len(criteriaMarker) + len(payload) + len(criteriaEnd)
	return strings.TrimSpace(overview[:start] + overview[end:])
}
