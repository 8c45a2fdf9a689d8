package discussion

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stance is a participant's position on the topic for one round.
type Stance string

const (
	StanceAgree    Stance = "agree"
	StanceDisagree Stance = "disagree"
	StanceAbstain  Stance = "abstain"
)

// ParseStance extracts the stance from a participant's response content.
// Responses lead with an AGREE or DISAGREE marker; anything else, including
// degraded placeholder output, counts as an abstention.
func ParseStance(content string) Stance {
	upper := strings.ToUpper(strings.TrimSpace(content))
	switch {
	case strings.HasPrefix(upper, "AGREE"):
		return StanceAgree
	case strings.HasPrefix(upper, "DISAGREE"):
		return StanceDisagree
	default:
		return StanceAbstain
	}
}

// Topic is the subject under discussion. Topics are read-only once a
// discussion starts.
type Topic struct {
	ID          string
	Subject     string
	Constraints string
}

// NewTopic creates a topic with a generated ID.
func NewTopic(subject, constraints string) Topic {
	return Topic{
		ID:          uuid.NewString(),
		Subject:     subject,
		Constraints: constraints,
	}
}

// Message is one participant's contribution to a round.
type Message struct {
	Participant string
	Round       int
	Stance      Stance
	Content     string
	Timestamp   time.Time
}

// Round is one closed discussion round. Messages appear in completion
// order; the round is immutable once scored.
type Round struct {
	Number   int
	Messages []Message
	Score    float64
}

// Counts returns the number of agree, disagree and abstain stances.
func (r Round) Counts() (agreed, disagreed, abstained int) {
	for _, m := range r.Messages {
		switch m.Stance {
		case StanceAgree:
			agreed++
		case StanceDisagree:
			disagreed++
		default:
			abstained++
		}
	}
	return agreed, disagreed, abstained
}

// scoreRound computes the consensus score for a set of messages: the
// fraction of non-abstaining participants that agreed. A round where
// everyone abstained scores zero.
func scoreRound(messages []Message) float64 {
	var agreed, voting int
	for _, m := range messages {
		switch m.Stance {
		case StanceAgree:
			agreed++
			voting++
		case StanceDisagree:
			voting++
		}
	}
	if voting == 0 {
		return 0
	}
	return float64(agreed) / float64(voting)
}

// Discussion is the complete record of one consensus run.
type Discussion struct {
	ID           string
	Topic        Topic
	Participants []string
	Rounds       []Round
	FinalScore   float64
	Success      bool
	Truncated    bool
	Duration     time.Duration
	StartedAt    time.Time
}

// BestRound returns the highest-scoring round, preferring the earlier
// round on ties. The reported outcome of a discussion is its final round;
// callers that need a decision regardless of success can use this instead.
func (d *Discussion) BestRound() (Round, bool) {
	if len(d.Rounds) == 0 {
		return Round{}, false
	}
	best := d.Rounds[0]
	for _, r := range d.Rounds[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, true
}
