package diarization

import "slices"

// Request asks for the speaker turns of one audio file. Speaker counts are
// hints; zero lets the provider decide.
type Request struct {
	AudioPath   string `json:"audio_path"`
	NumSpeakers int    `json:"num_speakers,omitempty"`
	MinSpeakers int    `json:"min_speakers,omitempty"`
	MaxSpeakers int    `json:"max_speakers,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Turn is a stretch of audio, in seconds, attributed to one speaker.
type Turn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Response lists turns in time order.
type Response struct {
	Turns       []Turn `json:"turns"`
	NumSpeakers int    `json:"num_speakers"`
}

// Speakers returns the distinct speaker labels, sorted.
func (r *Response) Speakers() []string {
	var out []string
	for _, t := range r.Turns {
		if !slices.Contains(out, t.Speaker) {
			out = append(out, t.Speaker)
		}
	}
	slices.Sort(out)
	return out
}
