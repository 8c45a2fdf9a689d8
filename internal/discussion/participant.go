package discussion

import (
	"context"
	"strings"
	"text/template"
	"time"

	"github.com/finchly/parley/internal/fallback"
	"github.com/finchly/parley/internal/gateway"
	"github.com/finchly/parley/internal/roles"
)

// Resolver produces a response payload for a service request. The fallback
// chain is the production implementation; tests substitute fakes.
type Resolver interface {
	Resolve(ctx context.Context, class gateway.ServiceClass, req gateway.Request) fallback.Outcome
}

// promptData is the render context for a role's prompt template.
type promptData struct {
	Subject     string
	Constraints string
	History     string
}

// participant binds a role to the resolver for the duration of one
// discussion.
type participant struct {
	role     roles.Role
	resolver Resolver
	tmpl     *template.Template
}

func newParticipant(role roles.Role, resolver Resolver) *participant {
	// A role that fails template parsing still participates; its raw
	// template text becomes the prompt. Builtin and YAML-loaded roles are
	// validated, so this path only matters for hand-constructed roles.
	tmpl, err := template.New(role.Name).Parse(role.PromptTemplate)
	if err != nil {
		tmpl = nil
	}
	return &participant{role: role, resolver: resolver, tmpl: tmpl}
}

// prompt renders the role's template with the topic and prior-round
// history.
func (p *participant) prompt(topic Topic, history string) string {
	if p.tmpl == nil {
		return p.role.PromptTemplate
	}
	var sb strings.Builder
	data := promptData{
		Subject:     topic.Subject,
		Constraints: topic.Constraints,
		History:     history,
	}
	if err := p.tmpl.Execute(&sb, data); err != nil {
		return p.role.PromptTemplate
	}
	return sb.String()
}

// speak resolves one contribution for the round. It never returns an
// error: a fully failed resolution (only possible with a misconfigured
// chain) is absorbed as an abstention.
func (p *participant) speak(ctx context.Context, topic Topic, round int, history string) Message {
	out := p.resolver.Resolve(ctx, gateway.ServiceScript, gateway.Request{
		Payload: p.prompt(topic, history),
	})

	msg := Message{
		Participant: p.role.Name,
		Round:       round,
		Timestamp:   time.Now(),
	}
	if out.Err != nil {
		msg.Stance = StanceAbstain
		return msg
	}
	msg.Content = out.Payload
	msg.Stance = ParseStance(out.Payload)
	return msg
}
