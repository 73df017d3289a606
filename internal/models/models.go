package models

// EventCastCreated is the only webhook event type the bot acts on.
const EventCastCreated = "cast.created"

// Author identifies the account that published a cast
type Author struct {
	FID      int64  `json:"fid"`
	Username string `json:"username"`
}

// Cast represents a single post as returned by the social API
type Cast struct {
	Hash       string `json:"hash"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp,omitempty"`
	ParentHash string `json:"parent_hash,omitempty"`
	Author     Author `json:"author"`
}

// WebhookEvent represents a validated inbound webhook delivery
type WebhookEvent struct {
	Type      string `json:"type"`
	CreatedAt int64  `json:"created_at,omitempty"`
	Data      Cast   `json:"data"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DialogueTurn is one prior message of the conversation between the author and the bot
type DialogueTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// RouteDecision selects the evidence strategy used to answer a query
type RouteDecision string

const (
	RouteMetadata   RouteDecision = "metadata"
	RouteContextual RouteDecision = "contextual"
	RouteHybrid     RouteDecision = "hybrid"
	RouteIgnore     RouteDecision = "ignore"
	RouteOther      RouteDecision = "other"
)

// Match is a single hit returned by the vector index
type Match struct {
	Text          string   `json:"transcript"`
	Score         float64  `json:"score"`
	EpisodeID     string   `json:"episode"`
	Title         string   `json:"title"`
	Series        string   `json:"series"`
	Hosts         []string `json:"hosts"`
	CompanionBlog string   `json:"companion_blog,omitempty"`
	AiredDate     string   `json:"aired_date"`
	VideoURL      string   `json:"youtube_url"`
}
