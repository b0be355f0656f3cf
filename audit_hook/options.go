package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used to report recorder failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithEnabledActions restricts auditing to the given actions. Calling it with
// no actions disables auditing entirely.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) { e.enabled = actionSet(actions) }
}

// WithDisabledActions audits everything except the given actions.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = actionSet(allActions())
		}
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

func actionSet(actions []string) map[string]bool {
	set := make(map[string]bool, len(actions))
	for _, action := range actions {
		set[action] = true
	}
	return set
}

// allActions lists every action the extension can emit.
func allActions() []string {
	return []string{
		ActionTokenTransferred,
		ActionTokenApproved,
		ActionTokenMinted,
		ActionTokenBurned,
		ActionOwnershipTransferred,
	}
}
