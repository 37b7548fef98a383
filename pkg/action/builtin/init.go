package builtin

import (
	"github.com/nightchill/checkin-service/pkg/action"
	"github.com/nightchill/checkin-service/pkg/service"
)

// RegisterActions registers built-in action factories bound to deps.
// A nil deps registers the factories with no services; actions that need one
// fail with action.ErrDependencyMissing when executed.
func RegisterActions(deps *service.Dependencies) {
	if deps == nil {
		deps = service.NewDependencies()
	}

	action.RegisterActionType(IssueVoucherActionID, func(config action.ActionConfig) (action.Action, error) {
		a, err := NewIssueVoucherAction(config, deps.Vouchers)
		if err != nil {
			return nil, err
		}
		return a, nil
	})

	action.RegisterActionType(PublishEventActionID, func(config action.ActionConfig) (action.Action, error) {
		return NewPublishEventAction(config, deps.Publisher), nil
	})

	action.RegisterActionType(LogEventActionID, func(config action.ActionConfig) (action.Action, error) {
		return NewLogEventAction(config), nil
	})
}
