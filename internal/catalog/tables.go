package catalog

type alias struct {
	canonical string
	variants  []string
}

// hostAliases maps the handle a host appears under in the catalog to the names people
// use for them. Later entries win when two hosts share a variant.
var hostAliases = []alias{
	{"dwr.eth", []string{"dan", "dwr", "dwr.eth", "dan romero"}},
	{"heavygweit", []string{"erica", "heavygweit"}},
	{"v", []string{"varun", "v"}},
	{"afrochicks", []string{"afrochicks", "naomi"}},
	{"naomi", []string{"naomiii", "naomi"}},
	{"proxystudio.eth", []string{"proxy", "proxystudio", "proxy studio", "proxystudio.eth"}},
	{"ccarella", []string{"chris carella", "ccarella"}},
	{"meonbase", []string{"meonbase", "ceej"}},
	{"esteez.eth", []string{"esteez", "emma"}},
	{"vpabundance", []string{"james", "vpabundance"}},
	{"s-mok-e", []string{"s-mok-e", "smoke"}},
	{"fredwilson.eth", []string{"fred wilson", "fred"}},
}

type seriesAlias struct {
	series   string
	variants []string
}

var seriesAliases = []seriesAlias{
	{"Special Event", []string{"special event", "special"}},
	{"GM Farcaster", []string{"gmfarcaster", "gm farcaster"}},
	{"Vibe Check", []string{"vibe check", "vibecheck"}},
	{"The Hub", []string{"hub", "the hub"}},
	{"Here for the Art", []string{"here for the art"}},
	{"Farcaster 101", []string{"farcaster 101"}},
}

var stopWords = toSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by", "is",
	"episode", "farcaster", "first", "last", "next", "previous", "guest", "guests", "what", "you",
	"your", "yours", "this", "that", "there", "here", "where", "when", "how", "why", "all", "any", "some",
	"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
