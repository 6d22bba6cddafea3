package domain

// QualityChoice is a user-facing quality preset label
type QualityChoice string

// Presets offered when a transcoder is available
const (
	QualityBest     QualityChoice = "Best Quality (Video + Audio)"
	Quality1080p    QualityChoice = "1080p"
	Quality720p     QualityChoice = "720p"
	Quality480p     QualityChoice = "480p"
	Quality360p     QualityChoice = "360p"
	QualityAudioMP3 QualityChoice = "Audio Only (MP3)"
)

// Presets offered when no transcoder is available (pre-merged streams only)
const (
	QualitySingleBest  QualityChoice = "Best Available (single file)"
	QualitySingle1080p QualityChoice = "1080p or lower (single file)"
	QualitySingle720p  QualityChoice = "720p or lower (single file)"
	QualitySingle480p  QualityChoice = "480p or lower (single file)"
	QualitySingle360p  QualityChoice = "360p or lower (single file)"
)

var (
	transcoderChoices = []QualityChoice{
		QualityBest, Quality1080p, Quality720p, Quality480p, Quality360p, QualityAudioMP3,
	}
	singleFileChoices = []QualityChoice{
		QualitySingleBest, QualitySingle1080p, QualitySingle720p, QualitySingle480p, QualitySingle360p,
	}
)

// QualityChoices returns the presets valid for the given capability, in display order
func QualityChoices(hasTranscoder bool) []QualityChoice {
	src := singleFileChoices
	if hasTranscoder {
		src = transcoderChoices
	}
	out := make([]QualityChoice, len(src))
	copy(out, src)
	return out
}

// ValidateQuality reports whether choice belongs to the set for the given capability
func ValidateQuality(choice QualityChoice, hasTranscoder bool) bool {
	for _, c := range QualityChoices(hasTranscoder) {
		if c == choice {
			return true
		}
	}
	return false
}

// DefaultQuality returns the first preset of the set for the given capability
func DefaultQuality(hasTranscoder bool) QualityChoice {
	return QualityChoices(hasTranscoder)[0]
}
