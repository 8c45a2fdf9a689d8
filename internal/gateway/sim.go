package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/finchly/parley/internal/errors"
)

// SimProfile shapes the behavior of one simulated service class.
type SimProfile struct {
	// TransientRate is the probability of a retryable failure per attempt.
	TransientRate float64
	// PolicyRate is the probability of a content-policy rejection.
	PolicyRate float64
	// RateLimitRate is the probability of an upstream rate-limit response.
	RateLimitRate float64
	// Latency is added to every attempt.
	Latency time.Duration
}

// Simulator is an Invoker that stands in for the real generative services,
// which are out of scope. It produces stance-bearing responses for script
// calls and descriptive asset stubs for the media classes, with seeded,
// reproducible failure injection.
type Simulator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	profiles  map[ServiceClass]SimProfile
	agreeBias float64
}

// NewSimulator creates a simulator with the given seed. By default all
// classes succeed instantly and script responses agree 75% of the time.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng:       rand.New(rand.NewSource(seed)),
		profiles:  make(map[ServiceClass]SimProfile),
		agreeBias: 0.75,
	}
}

// WithProfile sets the failure profile for one service class.
func (s *Simulator) WithProfile(class ServiceClass, profile SimProfile) *Simulator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[class] = profile
	return s
}

// WithAgreeBias sets the probability that a script response agrees.
func (s *Simulator) WithAgreeBias(bias float64) *Simulator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agreeBias = bias
	return s
}

// Invoke implements Invoker with seeded failure injection.
func (s *Simulator) Invoke(ctx context.Context, class ServiceClass, payload string) (string, error) {
	s.mu.Lock()
	profile := s.profiles[class]
	roll := s.rng.Float64()
	agree := s.rng.Float64() < s.agreeBias
	variant := s.rng.Intn(len(scriptOpinions))
	s.mu.Unlock()

	if profile.Latency > 0 {
		timer := time.NewTimer(profile.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	switch {
	case roll < profile.RateLimitRate:
		return "", fmt.Errorf("simulated upstream response: %w", errors.ErrRateLimited)
	case roll < profile.RateLimitRate+profile.PolicyRate:
		return "", fmt.Errorf("simulated upstream response: %w", errors.ErrPolicyRejected)
	case roll < profile.RateLimitRate+profile.PolicyRate+profile.TransientRate:
		return "", errors.NewServiceError(errors.ClassTransient, "simulated upstream timeout", nil)
	}

	return s.respond(class, payload, agree, variant), nil
}

// scriptOpinions are canned creative takes for simulated script responses.
var scriptOpinions = []string{
	"the hook lands in the first three seconds and the pacing holds",
	"the middle beat drags; tighten the second scene",
	"the closing call to action reads naturally for the target audience",
	"the tone drifts off-brief halfway through",
	"the voiceover copy matches the visual rhythm well",
}

func (s *Simulator) respond(class ServiceClass, payload string, agree bool, variant int) string {
	switch class {
	case ServiceScript:
		stance := "AGREE"
		if !agree {
			stance = "DISAGREE"
		}
		return fmt.Sprintf("%s: %s", stance, scriptOpinions[variant])
	case ServiceVideo:
		return fmt.Sprintf("video-asset: rendered storyboard for %q", truncate(payload, 40))
	case ServiceSpeech:
		return fmt.Sprintf("speech-asset: synthesized narration for %q", truncate(payload, 40))
	case ServiceImage:
		return fmt.Sprintf("image-asset: generated key frame for %q", truncate(payload, 40))
	default:
		return "asset: generated output"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
