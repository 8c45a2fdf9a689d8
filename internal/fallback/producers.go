package fallback

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/finchly/parley/internal/gateway"
)

// EnhancedSim derives output from the request payload, giving each request
// a distinct, repeatable degraded result. Script responses carry a stance
// picked deterministically from the payload so discussions remain stable
// across reruns.
type EnhancedSim struct{}

// NewEnhancedSim creates the enhanced simulation producer.
func NewEnhancedSim() *EnhancedSim { return &EnhancedSim{} }

// Name implements Producer.
func (e *EnhancedSim) Name() string { return "enhanced-sim" }

// Produce implements Producer.
func (e *EnhancedSim) Produce(ctx context.Context, class gateway.ServiceClass, req gateway.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h := fnv.New32a()
	h.Write([]byte(req.Payload))
	seed := h.Sum32()

	switch class {
	case gateway.ServiceScript:
		// Lean toward agreement the way a cooperative reviewer would: three
		// of four payload hashes agree.
		if seed%4 == 0 {
			return fmt.Sprintf("DISAGREE: simulated reviewer take %d flags pacing concerns", seed%100), nil
		}
		return fmt.Sprintf("AGREE: simulated reviewer take %d supports the current cut", seed%100), nil
	case gateway.ServiceVideo:
		return fmt.Sprintf("video-sim: storyboard variant %d for request", seed%100), nil
	case gateway.ServiceSpeech:
		return fmt.Sprintf("speech-sim: narration variant %d for request", seed%100), nil
	case gateway.ServiceImage:
		return fmt.Sprintf("image-sim: frame variant %d for request", seed%100), nil
	default:
		return fmt.Sprintf("sim: variant %d", seed%100), nil
	}
}

// BasicSim returns one canned template per service class, ignoring the
// request content entirely.
type BasicSim struct{}

// NewBasicSim creates the basic simulation producer.
func NewBasicSim() *BasicSim { return &BasicSim{} }

// Name implements Producer.
func (b *BasicSim) Name() string { return "basic-sim" }

// Produce implements Producer.
func (b *BasicSim) Produce(ctx context.Context, class gateway.ServiceClass, req gateway.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch class {
	case gateway.ServiceScript:
		return "ABSTAIN: basic simulation cannot evaluate the proposal", nil
	case gateway.ServiceVideo:
		return "video-basic: generic storyboard template", nil
	case gateway.ServiceSpeech:
		return "speech-basic: generic narration template", nil
	case gateway.ServiceImage:
		return "image-basic: generic key frame template", nil
	default:
		return "basic: generic output", nil
	}
}

// Placeholder is the terminal producer. It returns a constant marker and
// cannot fail: it ignores the context and touches no external state, which
// is what guarantees the chain as a whole never fails.
type Placeholder struct{}

// NewPlaceholder creates the static placeholder producer.
func NewPlaceholder() *Placeholder { return &Placeholder{} }

// Name implements Producer.
func (p *Placeholder) Name() string { return "placeholder" }

// Produce implements Producer. It never returns an error.
func (p *Placeholder) Produce(_ context.Context, class gateway.ServiceClass, _ gateway.Request) (string, error) {
	return fmt.Sprintf("placeholder-%s", class), nil
}
