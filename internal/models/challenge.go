package models

import "time"

type ChallengeStats struct {
	Participants int `json:"participants"`
	Submissions  int `json:"submissions"`
}

type Challenge struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Rules       string         `json:"rules,omitempty"`
	StartDate   time.Time      `json:"startDate"`
	EndDate     time.Time      `json:"endDate"`
	Stats       ChallengeStats `json:"stats"`
	Owner       *Owner         `json:"owner,omitempty"`
	IsJoined    bool           `json:"isJoined"`
	Created     string         `json:"created"`
}

func (c Challenge) GetID() string { return c.ID }

const (
	ChallengeUpcoming = "upcoming"
	ChallengeActive   = "active"
	ChallengeEnded    = "ended"
)

var ChallengeStatuses = []string{ChallengeUpcoming, ChallengeActive, ChallengeEnded}

// Status derives the challenge phase from its dates at the given instant.
func (c Challenge) Status(now time.Time) string {
	switch {
	case now.Before(c.StartDate):
		return ChallengeUpcoming
	case now.Before(c.EndDate):
		return ChallengeActive
	default:
		return ChallengeEnded
	}
}
