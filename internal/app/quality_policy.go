package app

import (
	"fmt"
	"path/filepath"

	"github.com/yourusername/vidfetch/internal/domain"
)

// OutputTemplateName is the engine's file naming template inside the output directory
const OutputTemplateName = "%(title)s.%(ext)s"

// heightCaps maps each preset to its maximum vertical resolution; 0 means uncapped
var heightCaps = map[domain.QualityChoice]int{
	domain.QualityBest:        0,
	domain.Quality1080p:       1080,
	domain.Quality720p:        720,
	domain.Quality480p:        480,
	domain.Quality360p:        360,
	domain.QualitySingleBest:  0,
	domain.QualitySingle1080p: 1080,
	domain.QualitySingle720p:  720,
	domain.QualitySingle480p:  480,
	domain.QualitySingle360p:  360,
}

// QualityPolicy maps a quality preset and the transcoder capability to an engine configuration
type QualityPolicy struct {
	outputDir    string
	audioCodec   string
	audioQuality string
}

// NewQualityPolicy creates a resolver writing into outputDir
func NewQualityPolicy(outputDir string) *QualityPolicy {
	return &QualityPolicy{
		outputDir:    outputDir,
		audioCodec:   domain.DefaultAudioCodec,
		audioQuality: domain.DefaultAudioQuality,
	}
}

// WithAudioFormat overrides the codec and bitrate used for audio-only extraction
func (p *QualityPolicy) WithAudioFormat(codec, quality string) *QualityPolicy {
	if codec != "" {
		p.audioCodec = codec
	}
	if quality != "" {
		p.audioQuality = quality
	}
	return p
}

// Choices returns the presets valid for the capability
func (p *QualityPolicy) Choices(hasTranscoder bool) []domain.QualityChoice {
	return domain.QualityChoices(hasTranscoder)
}

// Resolve returns the engine configuration for choice.
// Without a transcoder only pre-merged single-file formats are selected and no post-processing is requested.
func (p *QualityPolicy) Resolve(choice domain.QualityChoice, hasTranscoder bool) (*domain.DownloadConfig, error) {
	if !domain.ValidateQuality(choice, hasTranscoder) {
		return nil, domain.NewDownloadError(domain.KindInvalidChoice,
			fmt.Sprintf("unknown quality option %q", choice), nil)
	}

	cfg := &domain.DownloadConfig{
		OutputTemplate: filepath.Join(p.outputDir, OutputTemplateName),
	}

	if choice == domain.QualityAudioMP3 {
		cfg.FormatSelector = "bestaudio/best"
		cfg.PostProcessors = []domain.PostProcessor{{
			Key:     domain.PostProcessorExtractAudio,
			Codec:   p.audioCodec,
			Quality: p.audioQuality,
		}}
		return cfg, nil
	}

	height := heightCaps[choice]
	switch {
	case hasTranscoder && height == 0:
		cfg.FormatSelector = "bestvideo+bestaudio/best"
	case hasTranscoder:
		cfg.FormatSelector = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)
	case height == 0:
		cfg.FormatSelector = "best"
	default:
		cfg.FormatSelector = fmt.Sprintf("best[height<=%d]", height)
	}

	return cfg, nil
}
