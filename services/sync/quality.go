package sync

import (
	"strings"

	"boxsetter/models"
)

// AudioFormatLabel derives the display label for an audio stream, in
// priority order: Atmos variants, DTS:X, lossless codecs, then lossy codecs
// by substring. Falls back to the raw codec string.
func AudioFormatLabel(stream models.AudioStream) string {
	codec := strings.ToLower(stream.Codec)

	if stream.IsAtmos {
		if strings.Contains(codec, "truehd") {
			return "TrueHD Atmos"
		}
		return "Atmos"
	}
	if stream.IsDTSX {
		return "DTS:X"
	}
	if stream.IsLossless {
		switch {
		case strings.Contains(codec, "truehd"):
			return "TrueHD"
		case strings.Contains(codec, "dts"):
			return "DTS-HD MA"
		case strings.Contains(codec, "flac"):
			return "FLAC"
		}
	}
	switch {
	case strings.Contains(codec, "dts"):
		return "DTS"
	case strings.Contains(codec, "eac3"):
		return "DD+"
	case strings.Contains(codec, "ac3"):
		return "DD"
	case strings.Contains(codec, "aac"):
		return "AAC"
	}
	return stream.Codec
}

// matchesVideo checks every specified video constraint against one source.
// All specified constraints must hold on this single source.
func matchesVideo(source models.MediaSource, c *Criteria) bool {
	video := source.Video
	if video == nil {
		return false
	}
	if c.Resolution != "" && !strings.EqualFold(video.Resolution(), c.Resolution) {
		return false
	}
	if len(c.HDRTypes) > 0 {
		found := false
		for _, want := range c.HDRTypes {
			// "DV" is the common shorthand for the stored "Dolby Vision".
			if strings.EqualFold(want, "DV") {
				want = models.HDRTypeDolbyVision
			}
			if strings.EqualFold(video.HDRType, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(c.DVProfiles) > 0 {
		found := false
		for _, want := range c.DVProfiles {
			if video.DVProfile == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.DVLayer != "" && !strings.EqualFold(video.DVLayer, c.DVLayer) {
		return false
	}
	return true
}

// matchesAudio checks the audio constraints against one source. A requested
// format matches when a stream's label contains it, or when the special
// "lossless"/"atmos"/"dts:x" values match the per-stream flags directly —
// the flag checks catch combinations the label conflates (e.g. an Atmos
// track whose label resolved to "TrueHD Atmos").
func matchesAudio(source models.MediaSource, c *Criteria) bool {
	if c.LosslessAudio {
		anyLossless := false
		for _, stream := range source.AudioStreams {
			if stream.IsLossless {
				anyLossless = true
				break
			}
		}
		if !anyLossless {
			return false
		}
	}

	if len(c.AudioFormats) == 0 {
		return true
	}

	for _, stream := range source.AudioStreams {
		label := strings.ToLower(AudioFormatLabel(stream))
		for _, want := range c.AudioFormats {
			wantLower := strings.ToLower(want)
			if wantLower != "" && strings.Contains(label, wantLower) {
				return true
			}
			switch wantLower {
			case "lossless":
				if stream.IsLossless {
					return true
				}
			case "atmos":
				if stream.IsAtmos {
					return true
				}
			case "dts:x", "dts-x":
				if stream.IsDTSX {
					return true
				}
			}
		}
	}
	return false
}

// MatchesQuality decides whether a movie satisfies the criteria's quality
// constraints, searching across all alternate media sources. When both video
// and audio constraints are present they must hold on the same source; the
// first source (in listed order) that passes wins — candidates are not
// ranked. Audio-only constraints may be satisfied by any source.
func MatchesQuality(movie *models.Movie, c *Criteria) bool {
	hasVideo := c.HasVideoConstraints()
	hasAudio := c.HasAudioConstraints()
	if !hasVideo && !hasAudio {
		return true
	}

	for _, source := range movie.MediaSources {
		if hasVideo && !matchesVideo(source, c) {
			continue
		}
		if hasAudio && !matchesAudio(source, c) {
			continue
		}
		return true
	}
	return false
}
