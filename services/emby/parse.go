package emby

import (
	"strings"

	"boxsetter/models"
)

// Raw wire shapes for the Emby items endpoints. Only the fields the parsers
// read are declared; everything else on the wire is ignored.

type itemsResponse struct {
	Items            []embyItem `json:"Items"`
	TotalRecordCount int        `json:"TotalRecordCount"`
}

type embyItem struct {
	ID              string            `json:"Id"`
	Name            string            `json:"Name"`
	Type            string            `json:"Type"`
	ProductionYear  int               `json:"ProductionYear"`
	Genres          []string          `json:"Genres"`
	Tags            []string          `json:"Tags"`
	Overview        string            `json:"Overview"`
	CommunityRating float64           `json:"CommunityRating"`
	CriticRating    float64           `json:"CriticRating"`
	ProviderIDs     map[string]string `json:"ProviderIds"`
	Studios         []embyStudio      `json:"Studios"`
	MediaSources    []embySource      `json:"MediaSources"`
}

type embyStudio struct {
	Name string `json:"Name"`
}

type embySource struct {
	Container    string       `json:"Container"`
	Size         int64        `json:"Size"`
	Bitrate      int64        `json:"Bitrate"`
	MediaStreams []embyStream `json:"MediaStreams"`
}

type embyStream struct {
	Type           string `json:"Type"`
	Codec          string `json:"Codec"`
	Profile        string `json:"Profile"`
	DisplayTitle   string `json:"DisplayTitle"`
	Width          int    `json:"Width"`
	Height         int    `json:"Height"`
	BitDepth       int    `json:"BitDepth"`
	BitRate        int64  `json:"BitRate"`
	Channels       int    `json:"Channels"`
	ChannelLayout  string `json:"ChannelLayout"`
	SampleRate     int    `json:"SampleRate"`
	Language       string `json:"Language"`
	IsDefault      bool   `json:"IsDefault"`
	VideoRange     string `json:"VideoRange"`
	VideoRangeType string `json:"VideoRangeType"`
	DvProfile      int    `json:"DvProfile"`
	DvLevel        int    `json:"DvLevel"`
	DvElPresent    bool   `json:"DvElPresent"`
}

func parseVideoStream(s embyStream) *models.VideoStream {
	rangeType := s.VideoRangeType
	if rangeType == "" {
		rangeType = "SDR"
	}

	// HDR classification priority: DV > HDR10+ > HDR10 > HLG > SDR.
	hdrType := models.HDRTypeSDR
	switch {
	case s.DvProfile != 0 || strings.Contains(rangeType, "Dolby Vision"):
		hdrType = models.HDRTypeDolbyVision
	case strings.Contains(rangeType, "HDR10+"):
		hdrType = models.HDRTypeHDR10Plus
	case strings.Contains(rangeType, "HDR10") || s.VideoRange == "HDR":
		hdrType = models.HDRTypeHDR10
	case strings.Contains(rangeType, "HLG"):
		hdrType = models.HDRTypeHLG
	}

	dvLayer := ""
	if s.DvProfile != 0 {
		if s.DvElPresent {
			dvLayer = models.DVLayerFEL
		} else {
			dvLayer = models.DVLayerMEL
		}
	}

	return &models.VideoStream{
		Codec:       s.Codec,
		Width:       s.Width,
		Height:      s.Height,
		BitDepth:    s.BitDepth,
		Bitrate:     s.BitRate,
		HDRType:     hdrType,
		VideoRange:  s.VideoRange,
		DVProfile:   s.DvProfile,
		DVLevel:     s.DvLevel,
		DVELPresent: s.DvElPresent,
		DVLayer:     dvLayer,
	}
}

func parseAudioStream(s embyStream) models.AudioStream {
	codec := strings.ToLower(s.Codec)
	profile := strings.ToLower(s.Profile)
	display := strings.ToLower(s.DisplayTitle)

	isAtmos := strings.Contains(profile, "atmos") || strings.Contains(display, "atmos")
	isDTSX := strings.Contains(profile, "dts:x") ||
		strings.Contains(profile, "dts-x") ||
		strings.Contains(display, "dts:x")
	isLossless := codec == "truehd" || codec == "flac" || codec == "mlp" ||
		strings.Contains(profile, "dts-hd ma") ||
		strings.Contains(codec, "dts-hd.ma") ||
		(strings.Contains(profile, "ma") && strings.Contains(codec, "dts"))

	return models.AudioStream{
		Codec:         s.Codec,
		Channels:      s.Channels,
		ChannelLayout: s.ChannelLayout,
		Bitrate:       s.BitRate,
		SampleRate:    s.SampleRate,
		Language:      s.Language,
		IsDefault:     s.IsDefault,
		IsAtmos:       isAtmos,
		IsDTSX:        isDTSX,
		IsLossless:    isLossless,
	}
}

func parseMediaSource(src embySource) models.MediaSource {
	var video *models.VideoStream
	var audio []models.AudioStream

	for _, stream := range src.MediaStreams {
		switch stream.Type {
		case "Video":
			if video == nil {
				video = parseVideoStream(stream)
			}
		case "Audio":
			audio = append(audio, parseAudioStream(stream))
		}
	}

	// Primary audio is the first default stream, falling back to the first stream.
	var primary *models.AudioStream
	for i := range audio {
		if audio[i].IsDefault {
			primary = &audio[i]
			break
		}
	}
	if primary == nil && len(audio) > 0 {
		primary = &audio[0]
	}

	return models.MediaSource{
		Container:    src.Container,
		FileSize:     src.Size,
		TotalBitrate: src.Bitrate,
		Video:        video,
		AudioStreams: audio,
		PrimaryAudio: primary,
	}
}

func parseMediaSources(item embyItem) []models.MediaSource {
	if len(item.MediaSources) == 0 {
		return nil
	}
	sources := make([]models.MediaSource, 0, len(item.MediaSources))
	for _, src := range item.MediaSources {
		sources = append(sources, parseMediaSource(src))
	}
	return sources
}

// primarySource picks the highest-width source for display purposes. Quality
// matching never uses this; it always considers every source.
func primarySource(sources []models.MediaSource) *models.MediaSource {
	var best *models.MediaSource
	bestWidth := -1
	for i := range sources {
		width := 0
		if sources[i].Video != nil {
			width = sources[i].Video.Width
		}
		if width > bestWidth {
			best = &sources[i]
			bestWidth = width
		}
	}
	return best
}

func parseMovie(item embyItem) models.Movie {
	sources := parseMediaSources(item)
	studios := make([]string, 0, len(item.Studios))
	for _, s := range item.Studios {
		studios = append(studios, s.Name)
	}
	return models.Movie{
		ID:              item.ID,
		Name:            item.Name,
		Year:            item.ProductionYear,
		Genres:          item.Genres,
		Tags:            item.Tags,
		CommunityRating: item.CommunityRating,
		CriticRating:    item.CriticRating,
		Overview:        item.Overview,
		TMDBID:          item.ProviderIDs["Tmdb"],
		IMDBID:          item.ProviderIDs["Imdb"],
		Studios:         studios,
		PrimarySource:   primarySource(sources),
		MediaSources:    sources,
	}
}

func parseMovieSummary(item embyItem) models.MovieSummary {
	return models.MovieSummary{
		ID:              item.ID,
		Name:            item.Name,
		Year:            item.ProductionYear,
		Genres:          item.Genres,
		Tags:            item.Tags,
		CommunityRating: item.CommunityRating,
		TMDBID:          item.ProviderIDs["Tmdb"],
		IMDBID:          item.ProviderIDs["Imdb"],
	}
}
