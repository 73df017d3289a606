package models

import "errors"

var ErrEmptyTranscript = errors.New("transcript has no alternatives")

// Transcript mirrors the speech-to-text document stored per episode.
type Transcript struct {
	Results struct {
		Channels []Channel `json:"channels"`
	} `json:"results"`
}

type Channel struct {
	Alternatives []TranscriptAlternative `json:"alternatives"`
}

type TranscriptAlternative struct {
	Transcript string `json:"transcript"`
	Words      []Word `json:"words"`
	Paragraphs struct {
		Paragraphs []Paragraph `json:"paragraphs"`
	} `json:"paragraphs"`
}

type Word struct {
	Word           string  `json:"word"`
	PunctuatedWord string  `json:"punctuated_word"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
}

type Paragraph struct {
	Sentences []Sentence `json:"sentences"`
}

type Sentence struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Primary returns the first alternative of the first channel.
func (t *Transcript) Primary() (*TranscriptAlternative, error) {
	if t == nil || len(t.Results.Channels) == 0 || len(t.Results.Channels[0].Alternatives) == 0 {
		return nil, ErrEmptyTranscript
	}
	return &t.Results.Channels[0].Alternatives[0], nil
}

// Sentences flattens every paragraph into a single ordered sentence list.
func (a *TranscriptAlternative) Sentences() []Sentence {
	var out []Sentence
	for _, p := range a.Paragraphs.Paragraphs {
		out = append(out, p.Sentences...)
	}
	return out
}
