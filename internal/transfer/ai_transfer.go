package transfer

// ContextPost is one piece of network evidence fed to the generation
// prompt.
type ContextPost struct {
	ExternalID string  `json:"external_id"`
	Author     string  `json:"author"`
	Content    string  `json:"content"`
	Engagement float64 `json:"engagement"`
}

type ContextTopic struct {
	Name        string   `json:"name"`
	Mentions    int      `json:"mentions"`
	Engagement  float64  `json:"engagement"`
	Context     string   `json:"context"`
	SamplePosts []string `json:"sample_posts,omitempty"`
}

// PromptContext carries everything a generation strategy assembled for
// one AI call. Voice and SamplePosts always outrank StyleSummary, which
// is filled only when neither exists.
type PromptContext struct {
	Platform     string         `json:"platform"`
	Voice        string         `json:"voice,omitempty"`
	SamplePosts  []string       `json:"sample_posts,omitempty"`
	StyleSummary string         `json:"style_summary,omitempty"`
	Topics       []string       `json:"topics,omitempty"`
	RecentPosts  []ContextPost  `json:"recent_posts,omitempty"`
	Trending     []ContextTopic `json:"trending,omitempty"`
}

// GeneratedSuggestion is the strict output contract for one suggestion
// returned by the AI service.
type GeneratedSuggestion struct {
	Type             string   `json:"type"`
	Content          string   `json:"content"`
	Reasoning        string   `json:"reasoning"`
	Angle            string   `json:"angle"`
	Topics           []string `json:"topics"`
	SourceExternalID string   `json:"source_external_id,omitempty"`
}
