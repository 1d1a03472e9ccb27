package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Entry pairs an identifier with its reference nickname. Entries keep their
// declaration order: nickname lookups scan them first-to-last.
type Entry struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// Alias maps a free-form mode spelling to its canonical mode name.
type Alias struct {
	Alias string `json:"alias"`
	Mode  string `json:"mode"`
}

// RiskWeight is the per-mode contribution to a target's risk score. The
// occurrence map overrides the normal weight for the nth record of that mode
// (1-based), so repeat offenses can weigh heavier.
type RiskWeight struct {
	Normal       float64         `json:"normal"`
	ByOccurrence map[int]float64 `json:"byOccurrence,omitempty"`
}

// Messages is the catalog of operator-facing validation texts.
type Messages struct {
	DurationRequired string `json:"durationRequired"`
	DurationPattern  string `json:"durationPattern"`
	DurationMinute   string `json:"durationMinute"`
	DurationHour     string `json:"durationHour"`
	DurationDay      string `json:"durationDay"`
	DurationWeek     string `json:"durationWeek"`
	DurationMonth    string `json:"durationMonth"`
	DurationDisabled string `json:"durationDisabled"`
	QQLength         string `json:"qqLength"`
	QQUnknown        string `json:"qqUnknown"`
	ReasonNumeric    string `json:"reasonNumeric"`
	ModeUnknown      string `json:"modeUnknown"`
	TimeFuture       string `json:"timeFuture"`
	TimePast         string `json:"timePast"`
	ImageRequired    string `json:"imageRequired"`
	ImageFormat      string `json:"imageFormat"`
	ImageDecode      string `json:"imageDecode"`
	OperatorShielded string `json:"operatorShielded"`
	RecordNotFound   string `json:"recordNotFound"`
	SaveSuccess      string `json:"saveSuccess"`
	DeleteSuccess    string `json:"deleteSuccess"`
}

// Config is the immutable reference configuration every component receives at
// construction. It is never mutated after Load.
type Config struct {
	Modes       []string `json:"modes"`
	ModeAliases []Alias  `json:"modeAliases"`
	Groups      []Entry  `json:"groups"`
	Operators   []Entry  `json:"operators"`

	Owner           string   `json:"owner"`
	FormerOperators []string `json:"formerOperators"`

	// MuteMode is the mode that requires a duration; every other mode
	// forbids one. KickMode and BanMode drive the life-cycle state a
	// target's history derives.
	MuteMode string `json:"muteMode"`
	KickMode string `json:"kickMode"`
	BanMode  string `json:"banMode"`

	// TimeFloor is the platform epoch: no record may predate it.
	TimeFloor string `json:"timeFloor"`

	RiskWeights map[string]RiskWeight `json:"riskWeights"`
	Messages    Messages              `json:"messages"`

	modeByAlias  map[string]string
	groupByID    map[string]string
	operatorByID map[string]string
	formerSet    map[string]bool
}

// TimeLayout is the single canonical "date clock" form used on the wire.
const TimeLayout = "2006-01-02 15:04:05"

// Default returns the built-in reference configuration. A JSON file at
// REFDATA_PATH overrides any of its fields.
func Default() *Config {
	cfg := &Config{
		Modes: []string{"mute", "kick", "ban", "warn", "withdraw"},
		ModeAliases: []Alias{
			{Alias: "silence", Mode: "mute"},
			{Alias: "remove", Mode: "kick"},
			{Alias: "blacklist", Mode: "ban"},
			{Alias: "recall", Mode: "withdraw"},
		},
		Groups: []Entry{
			{ID: "833970143", Nickname: "main hall"},
			{ID: "1048699506", Nickname: "server room"},
			{ID: "1057699431", Nickname: "core circle"},
			{ID: "1058185958", Nickname: "moderator den"},
			{ID: "702683488", Nickname: "notice board"},
			{ID: "963462616", Nickname: "operator lounge"},
			{ID: "607933097", Nickname: "doujin corner"},
		},
		Operators: []Entry{
			{ID: "3875039665", Nickname: "curator"},
			{ID: "2659089747", Nickname: "nightwatch"},
			{ID: "1356046986", Nickname: "gatekeeper"},
			{ID: "3056499105", Nickname: "archivist"},
			{ID: "2475530125", Nickname: "patroller"},
		},
		Owner:           "3875039665",
		FormerOperators: []string{"2475530125"},
		MuteMode:        "mute",
		KickMode:        "kick",
		BanMode:         "ban",
		TimeFloor:       "2025-05-12 00:00:00",
		RiskWeights: map[string]RiskWeight{
			"mute":     {Normal: 0.5, ByOccurrence: map[int]float64{1: 0.3}},
			"kick":     {Normal: 1.0},
			"ban":      {Normal: 2.0},
			"warn":     {Normal: 0.2},
			"withdraw": {Normal: 0.1},
		},
		Messages: Messages{
			DurationRequired: "duration is required while the mode is mute",
			DurationPattern:  "duration must look like 30m, 12h, 2d, 1w or 1M",
			DurationMinute:   "seconds and minutes must be between 1 and 60",
			DurationHour:     "hours must be between 1 and 720",
			DurationDay:      "days must be between 1 and 30",
			DurationWeek:     "weeks must be between 1 and 4.28",
			DurationMonth:    "only exactly one month is allowed",
			DurationDisabled: "duration only applies to mutes",
			QQLength:         "a QQ number is 5 to 11 digits",
			QQUnknown:        "unknown QQ number, fill in a nickname for it",
			ReasonNumeric:    "the reason cannot be empty or a bare number",
			ModeUnknown:      "pick a mode from the list",
			TimeFuture:       "the action time cannot be later than",
			TimePast:         "the action time cannot be earlier than",
			ImageRequired:    "at least one evidence image is required",
			ImageFormat:      "unsupported image format",
			ImageDecode:      "could not read the image",
			OperatorShielded: "active operators cannot be targeted",
			RecordNotFound:   "record not found",
			SaveSuccess:      "record saved",
			DeleteSuccess:    "record deleted",
		},
	}
	cfg.buildIndexes()
	return cfg
}

// Load reads the reference configuration, overlaying the JSON file at path
// (when non-empty) on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}
	if _, err := time.Parse(TimeLayout, cfg.TimeFloor); err != nil {
		return nil, fmt.Errorf("invalid timeFloor in reference data: %w", err)
	}
	cfg.buildIndexes()
	return cfg, nil
}

func (c *Config) buildIndexes() {
	// Canonical modes resolve to themselves; aliases layer on top.
	c.modeByAlias = make(map[string]string, len(c.Modes)+len(c.ModeAliases))
	for _, m := range c.Modes {
		c.modeByAlias[m] = m
	}
	for _, a := range c.ModeAliases {
		c.modeByAlias[a.Alias] = a.Mode
	}
	c.groupByID = make(map[string]string, len(c.Groups))
	for _, e := range c.Groups {
		c.groupByID[e.ID] = e.Nickname
	}
	c.operatorByID = make(map[string]string, len(c.Operators))
	for _, e := range c.Operators {
		c.operatorByID[e.ID] = e.Nickname
	}
	c.formerSet = make(map[string]bool, len(c.FormerOperators))
	for _, id := range c.FormerOperators {
		c.formerSet[id] = true
	}
}

// ResolveMode maps a mode spelling (canonical or alias) to its canonical name.
func (c *Config) ResolveMode(s string) (string, bool) {
	mode, ok := c.modeByAlias[s]
	return mode, ok
}

// GroupNickname returns the reference nickname for a group id.
func (c *Config) GroupNickname(id string) (string, bool) {
	n, ok := c.groupByID[id]
	return n, ok
}

// OperatorNickname returns the reference nickname for an operator id.
func (c *Config) OperatorNickname(id string) (string, bool) {
	n, ok := c.operatorByID[id]
	return n, ok
}

// IsActiveOperator reports whether id is a current (non-former) operator.
func (c *Config) IsActiveOperator(id string) bool {
	_, listed := c.operatorByID[id]
	return listed && !c.formerSet[id]
}

// IsFormerOperator reports whether id sits in the former-operator set.
func (c *Config) IsFormerOperator(id string) bool {
	return c.formerSet[id]
}

// FloorTime parses the platform epoch. Default and Load both guarantee the
// stored value parses, so errors are ignored here.
func (c *Config) FloorTime() time.Time {
	t, _ := time.Parse(TimeLayout, c.TimeFloor)
	return t
}
