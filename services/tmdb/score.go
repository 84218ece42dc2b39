package tmdb

import "strings"

// Production companies strongly associated with b-movie output.
var bMovieStudios = map[string]bool{
	"troma":                           true,
	"full moon features":              true,
	"the asylum":                      true,
	"cannon films":                    true,
	"american international pictures": true,
	"new world pictures":              true,
	"crown international pictures":    true,
	"empire pictures":                 true,
	"pm entertainment":                true,
}

// Keywords indicating campy/cult status.
var campyKeywords = map[string]bool{
	"slasher":       true,
	"gore":          true,
	"b-movie":       true,
	"campy":         true,
	"cult film":     true,
	"splatter film": true,
	"exploitation":  true,
	"grindhouse":    true,
	"video nasty":   true,
	"low budget":    true,
	"final girl":    true,
	"scream queen":  true,
}

// IsBMovieStudio reports whether any production company is a known b-movie studio.
func IsBMovieStudio(companies []string) bool {
	for _, c := range companies {
		if bMovieStudios[strings.ToLower(c)] {
			return true
		}
	}
	return false
}

// HasCampyKeywords reports whether the keyword set indicates campy/cult status.
func HasCampyKeywords(keywords []Keyword) bool {
	for _, k := range keywords {
		if campyKeywords[strings.ToLower(k.Name)] {
			return true
		}
	}
	return false
}

// BMovieScore calculates a 0-1 score for how "b-movie" a film likely is.
// Each available signal contributes a factor; the score is the factor average,
// so missing metadata doesn't drag a movie toward zero.
func BMovieScore(movie *EnrichedMovie) float64 {
	score := 0.0
	factors := 0

	// Budget: lower means more likely b-movie.
	if movie.Budget > 0 {
		factors++
		switch {
		case movie.Budget < 1_000_000:
			score += 1.0
		case movie.Budget < 5_000_000:
			score += 0.7
		case movie.Budget < 15_000_000:
			score += 0.3
		}
	}

	// Vote average: mid-range suggests cult appeal. The factor counts
	// whenever TMDb supplies the field, even for an unrated 0.0.
	if movie.VoteAverage != nil {
		factors++
		va := *movie.VoteAverage
		switch {
		case va >= 4.0 && va <= 6.5:
			score += 0.8
		case va >= 3.0 && va < 4.0:
			score += 0.6
		case va < 3.0:
			score += 0.4
		}
	}

	if len(movie.Keywords) > 0 {
		factors++
		if HasCampyKeywords(movie.Keywords) {
			score += 1.0
		}
	}

	if len(movie.ProductionCompanies) > 0 {
		factors++
		if IsBMovieStudio(movie.ProductionCompanies) {
			score += 1.0
		}
	}

	if factors == 0 {
		return 0.0
	}
	return score / float64(factors)
}
