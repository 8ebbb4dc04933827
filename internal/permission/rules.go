package permission

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Rule grants or denies dispatches whose category, name, actor and auth
// type match.
type Rule struct {
	Category  string
	Pattern   string
	Actors    []string
	AuthTypes []string
	Action    Action
}

func (r Rule) matches(category types.Category, name string, actor *types.Actor, auth *types.Auth) bool {
	if !matchCategory(r.Category, category) {
		return false
	}
	if !MatchName(r.Pattern, name) {
		return false
	}
	if !matchAny(r.Actors, types.ActorID(actor)) {
		return false
	}
	return matchAny(r.AuthTypes, string(types.AuthTypeOf(auth)))
}

// Policy is an ordered rule list with a fallback action.
type Policy struct {
	Default Action
	Rules   []Rule
}

// Decide returns the action of the first matching rule, or the default.
func (p *Policy) Decide(category types.Category, name string, actor *types.Actor, auth *types.Auth) Action {
	for _, r := range p.Rules {
		if r.matches(category, name, actor, auth) {
			return r.Action
		}
	}
	return p.Default
}

// RuleGate is a Gate backed by a Policy that can be replaced at runtime.
// Allow reads the current policy without locking.
type RuleGate struct {
	policy atomic.Pointer[Policy]
}

// NewRuleGate creates a gate for policy. A zero Default is treated as allow.
func NewRuleGate(policy Policy) *RuleGate {
	g := &RuleGate{}
	g.SetPolicy(policy)
	return g
}

// SetPolicy atomically replaces the active policy.
func (g *RuleGate) SetPolicy(policy Policy) {
	if policy.Default == "" {
		policy.Default = ActionAllow
	}
	rules := make([]Rule, len(policy.Rules))
	copy(rules, policy.Rules)
	policy.Rules = rules
	g.policy.Store(&policy)
}

// Policy returns the active policy.
func (g *RuleGate) Policy() Policy {
	return *g.policy.Load()
}

// Allow implements Gate.
func (g *RuleGate) Allow(category types.Category, name string, actor *types.Actor, auth *types.Auth) bool {
	return g.policy.Load().Decide(category, name, actor, auth) == ActionAllow
}

// PolicyFromConfig converts configuration into a Policy, validating every
// rule. A nil config yields an allow-all policy.
func PolicyFromConfig(cfg *types.PermissionConfig) (Policy, error) {
	policy := Policy{Default: ActionAllow}
	if cfg == nil {
		return policy, nil
	}
	if cfg.Default != "" {
		action, err := ParseAction(cfg.Default)
		if err != nil {
			return Policy{}, fmt.Errorf("permission default: %w", err)
		}
		policy.Default = action
	}

	var errs []error
	for i, rc := range cfg.Rules {
		action, err := ParseAction(rc.Action)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		category := rc.Category
		if category != "" && category != types.Wildcard {
			c, err := types.ParseCategory(category)
			if err != nil {
				errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
				continue
			}
			category = string(c)
		}
		if !ValidatePattern(rc.Pattern) {
			errs = append(errs, fmt.Errorf("rule %d: invalid pattern %q", i, rc.Pattern))
			continue
		}
		policy.Rules = append(policy.Rules, Rule{
			Category:  category,
			Pattern:   rc.Pattern,
			Actors:    rc.Actors,
			AuthTypes: rc.AuthTypes,
			Action:    action,
		})
	}
	if len(errs) > 0 {
		return Policy{}, errors.Join(errs...)
	}
	return policy, nil
}
