package trips

import (
	"encoding/json"

	"github.com/samber/lo"
)

type BudgetLevel string

const (
	BudgetLow  BudgetLevel = "low"
	BudgetMid  BudgetLevel = "mid"
	BudgetHigh BudgetLevel = "high"
)

type BlockStatus string

const (
	StatusPlanned  BlockStatus = "planned"
	StatusSkipped  BlockStatus = "skipped"
	StatusReplaced BlockStatus = "replaced"
)

const KindFlight = "flight"

type PlaceRef struct {
	Name    string   `json:"name,omitempty"`
	Address string   `json:"address,omitempty"`
	MapsURL string   `json:"maps_url,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (p *PlaceRef) HasCoordinates() bool {
	return p != nil && p.Lat != nil && p.Lng != nil
}

// BlockMeta carries provider metadata about a block. Besides the well known
// rating, review_count and price_tier keys it may hold anything the server sends.
type BlockMeta map[string]interface{}

// UnmarshalJSON leaves the meta empty when the value is not an object.
func (m *BlockMeta) UnmarshalJSON(data []byte) error {
	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		*m = nil
		return nil
	}
	*m = v
	return nil
}

func (m BlockMeta) Rating() (float64, bool) {
	v, ok := m["rating"].(float64)
	return v, ok
}

func (m BlockMeta) ReviewCount() (int, bool) {
	v, ok := m["review_count"].(float64)
	return int(v), ok
}

func (m BlockMeta) PriceTier() string {
	v, _ := m["price_tier"].(string)
	return v
}

type Block struct {
	BlockID   string      `json:"block_id"`
	Title     string      `json:"title"`
	Kind      string      `json:"kind"`
	Status    BlockStatus `json:"status"`
	StartTime string      `json:"start_time"`
	EndTime   string      `json:"end_time"`
	PlaceRef  *PlaceRef   `json:"place_ref,omitempty"`
	Meta      BlockMeta   `json:"meta,omitempty"`
	Notes     string      `json:"notes,omitempty"`
}

type Day struct {
	Date   string  `json:"date"`
	Blocks []Block `json:"blocks"`
}

type TripPlan struct {
	TripID        string      `json:"trip_id"`
	Timezone      string      `json:"timezone"`
	Origin        string      `json:"origin"`
	Destinations  []string    `json:"destinations"`
	StartDate     string      `json:"start_date"`
	EndDate       string      `json:"end_date"`
	BudgetLevel   BudgetLevel `json:"budget_level"`
	Interests     []string    `json:"interests"`
	Neighborhoods []string    `json:"neighborhoods"`
	Days          []Day       `json:"days"`
}

// FindBlock returns the first block with the given id and the date of its day.
func (p TripPlan) FindBlock(blockID string) (Block, string, bool) {
	for _, day := range p.Days {
		for _, block := range day.Blocks {
			if block.BlockID == blockID {
				return block, day.Date, true
			}
		}
	}
	return Block{}, "", false
}

func (p TripPlan) BlockCount() int {
	n := 0
	for _, day := range p.Days {
		n += len(day.Blocks)
	}
	return n
}

type TripPrefs struct {
	LikedBlockIDs []string `json:"likedBlockIds"`
}

// ToggleLike returns a copy of the prefs with blockID liked when it was not
// liked before, and unliked otherwise.
func (p TripPrefs) ToggleLike(blockID string) TripPrefs {
	if lo.Contains(p.LikedBlockIDs, blockID) {
		return TripPrefs{LikedBlockIDs: lo.Without(p.LikedBlockIDs, blockID)}
	}

	next := make([]string, 0, len(p.LikedBlockIDs)+1)
	next = append(next, p.LikedBlockIDs...)
	return TripPrefs{LikedBlockIDs: append(next, blockID)}
}

func (p TripPrefs) IsLiked(blockID string) bool {
	return lo.Contains(p.LikedBlockIDs, blockID)
}

type VoiceDecision struct {
	Action         string `json:"action"`
	BlockID        string `json:"block_id,omitempty"`
	Direction      string `json:"direction,omitempty"`
	PreferenceText string `json:"preference_text,omitempty"`
}

type VoiceIntentResponse struct {
	Transcript   string        `json:"transcript"`
	Decision     VoiceDecision `json:"decision"`
	AgentMessage string        `json:"agent_message"`
	Trip         TripPlan      `json:"trip"`
}
