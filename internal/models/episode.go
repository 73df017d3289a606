package models

import "sort"

// Episode represents one catalog entry of the video library
type Episode struct {
	ID             string   `json:"episode"`
	Title          string   `json:"title"`
	Series         string   `json:"series"`
	Hosts          []string `json:"hosts"`
	AiredDate      string   `json:"aired_date"`
	TranscriptPath string   `json:"transcript_path,omitempty"`
	VideoURL       string   `json:"youtube_url"`
	CompanionBlog  string   `json:"companion_blog,omitempty"`
}

// PromptEpisode is the subset of an episode that is safe to show to the model.
// Internal references such as the transcript path are left out.
type PromptEpisode struct {
	ID        string   `json:"episode"`
	Title     string   `json:"title"`
	Series    string   `json:"series"`
	Hosts     []string `json:"hosts"`
	AiredDate string   `json:"aired_date"`
	VideoURL  string   `json:"youtube_url,omitempty"`
}

func (e Episode) ForPrompt() PromptEpisode {
	return PromptEpisode{
		ID:        e.ID,
		Title:     e.Title,
		Series:    e.Series,
		Hosts:     e.Hosts,
		AiredDate: e.AiredDate,
		VideoURL:  e.VideoURL,
	}
}

// SortByAiredDate orders episodes by aired date, oldest first. Ties keep their input order.
func SortByAiredDate(episodes []Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].AiredDate < episodes[j].AiredDate
	})
}
