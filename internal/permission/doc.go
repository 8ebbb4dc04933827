// Package permission provides the gate the hook engine consults before it
// invokes any hook for a dispatch.
//
// # Overview
//
// A Gate answers one question per dispatch: may hooks run for this
// category, event name, actor and auth context? A false answer makes the
// dispatch Denied with zero hook invocations.
//
// Gates must be fast and must never block. The engine may call Allow from
// a cooperative scheduler loop where blocking would stall every other
// dispatch sharing the loop.
//
// # Rule Gate
//
// RuleGate evaluates an ordered list of rules; the first matching rule
// decides, otherwise the policy default applies:
//
//	gate := permission.NewRuleGate(permission.Policy{
//		Default: permission.ActionAllow,
//		Rules: []permission.Rule{
//			{Category: "method", Pattern: "admin_*", AuthTypes: []string{"oauth"}, Action: permission.ActionAllow},
//			{Category: "method", Pattern: "admin_*", Action: permission.ActionDeny},
//			{Category: "property", Pattern: "secret/**", Action: permission.ActionDeny},
//		},
//	})
//
// Name patterns are doublestar globs:
//   - "admin_*" - any single-segment name with the prefix
//   - "settings/**" - any property path below settings
//   - "**" - everything
//
// The active policy is held behind an atomic pointer; SetPolicy swaps it
// without blocking concurrent Allow calls, which is how configuration
// reloads take effect.
package permission
