package models

// Resolution buckets derived from pixel width. Classification uses inclusive
// lower bounds, highest bucket first (3840 is 4K, 3839 is 1080p).
const (
	Resolution4K      = "4K"
	Resolution1080p   = "1080p"
	Resolution720p    = "720p"
	Resolution480p    = "480p"
	ResolutionSD      = "SD"
	ResolutionUnknown = "Unknown"
)

// HDR classifications in priority order: Dolby Vision > HDR10+ > HDR10 > HLG > SDR.
const (
	HDRTypeDolbyVision = "Dolby Vision"
	HDRTypeHDR10Plus   = "HDR10+"
	HDRTypeHDR10       = "HDR10"
	HDRTypeHLG         = "HLG"
	HDRTypeSDR         = "SDR"
)

// Dolby Vision enhancement layer delivery.
const (
	DVLayerFEL = "FEL" // Full Enhancement Layer
	DVLayerMEL = "MEL" // Minimal Enhancement Layer
)

// MediaSource is one alternate encoded version of a movie.
type MediaSource struct {
	Container    string        `json:"container,omitempty"`
	FileSize     int64         `json:"fileSize,omitempty"`
	TotalBitrate int64         `json:"totalBitrate,omitempty"`
	Video        *VideoStream  `json:"video,omitempty"`
	AudioStreams []AudioStream `json:"audioStreams,omitempty"`
	PrimaryAudio *AudioStream  `json:"primaryAudio,omitempty"`
}

// VideoStream describes the single video stream of a media source, with HDR
// and Dolby Vision properties already derived from the raw Emby signaling.
type VideoStream struct {
	Codec    string `json:"codec,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	BitDepth int    `json:"bitDepth,omitempty"`
	Bitrate  int64  `json:"bitrate,omitempty"`

	HDRType    string `json:"hdrType"`
	VideoRange string `json:"videoRange,omitempty"`

	DVProfile   int    `json:"dvProfile,omitempty"` // 0 = no Dolby Vision
	DVLevel     int    `json:"dvLevel,omitempty"`
	DVELPresent bool   `json:"dvElPresent,omitempty"`
	DVLayer     string `json:"dvLayer,omitempty"` // "FEL" or "MEL", empty without DV
}

// Resolution returns the resolution bucket for the stream's pixel width.
func (v *VideoStream) Resolution() string {
	if v == nil || v.Width == 0 {
		return ResolutionUnknown
	}
	switch {
	case v.Width >= 3840:
		return Resolution4K
	case v.Width >= 1920:
		return Resolution1080p
	case v.Width >= 1280:
		return Resolution720p
	case v.Width >= 720:
		return Resolution480p
	default:
		return ResolutionSD
	}
}

// AudioStream describes one audio track. The boolean flags are derived from
// codec/profile substrings at parse time (case-insensitive, not exact-match).
type AudioStream struct {
	Codec         string `json:"codec,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	ChannelLayout string `json:"channelLayout,omitempty"`
	Bitrate       int64  `json:"bitrate,omitempty"`
	SampleRate    int    `json:"sampleRate,omitempty"`
	Language      string `json:"language,omitempty"`
	IsDefault     bool   `json:"isDefault,omitempty"`
	IsAtmos       bool   `json:"isAtmos,omitempty"`
	IsDTSX        bool   `json:"isDtsX,omitempty"`
	IsLossless    bool   `json:"isLossless,omitempty"`
}
