package server

import (
	syncsvc "boxsetter/services/sync"
)

// criteriaFromArgs builds a Criteria from raw tool arguments. JSON numbers
// arrive as float64 and arrays as []any, so every field goes through a
// tolerant coercion; absent or mistyped fields stay at their zero value.
func criteriaFromArgs(args map[string]any) *syncsvc.Criteria {
	return &syncsvc.Criteria{
		Genres:         toStringSlice(args["genres"]),
		MinYear:        toInt(args["min_year"]),
		MaxYear:        toInt(args["max_year"]),
		MinRating:      toFloat(args["min_rating"]),
		MaxRating:      toFloat(args["max_rating"]),
		MinBMovieScore: toFloatPtr(args["min_b_movie_score"]),
		Tags:           toStringSlice(args["tags"]),
		Keywords:       toStringSlice(args["keywords"]),
		Resolution:     toString(args["resolution"]),
		HDRTypes:       toStringSlice(args["hdr_types"]),
		DVProfiles:     toIntSlice(args["dv_profiles"]),
		DVLayer:        toString(args["dv_layer"]),
		AudioFormats:   toStringSlice(args["audio_formats"]),
		LosslessAudio:  toBool(args["lossless_audio"]),
		TraktListUser:  toString(args["trakt_list_user"]),
		TraktListSlug:  toString(args["trakt_list_slug"]),
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

// toFloatPtr preserves the distinction between "absent" and an explicit
// zero, which matters for min_b_movie_score.
func toFloatPtr(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toIntSlice(v any) []int {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []int
	for _, item := range items {
		switch n := item.(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		}
	}
	return out
}
