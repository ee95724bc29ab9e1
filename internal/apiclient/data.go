package apiclient

import "encoding/json"

// envelope is the wrapper every API method answers with.
type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

const StatusOK = "OK"

type User struct {
	Handle    string `json:"handle"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Country   string `json:"country,omitempty"`
	Rank      string `json:"rank,omitempty"`
	Rating    int    `json:"rating,omitempty"`
	MaxRank   string `json:"maxRank,omitempty"`
	MaxRating int    `json:"maxRating,omitempty"`
}

// Contest phases as reported by contest.list.
const (
	PhaseBefore   = "BEFORE"
	PhaseCoding   = "CODING"
	PhaseFinished = "FINISHED"
)

type Contest struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Type                string `json:"type,omitempty"`
	Phase               string `json:"phase"`
	Frozen              bool   `json:"frozen,omitempty"`
	DurationSeconds     int64  `json:"durationSeconds"`
	StartTimeSeconds    int64  `json:"startTimeSeconds,omitempty"`
	RelativeTimeSeconds int64  `json:"relativeTimeSeconds,omitempty"`
}

type Problem struct {
	ContestID int      `json:"contestId,omitempty"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Type      string   `json:"type,omitempty"`
	Rating    int      `json:"rating,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type Standings struct {
	Contest  Contest   `json:"contest"`
	Problems []Problem `json:"problems"`
}
