package rbac

const (
	ResourceLeave = "leave"

	ActionSubmit = "submit"
	ActionStatus = "status"
)

// DecideAction is the permission needed to record a decision for stage.
func DecideAction(stage string) string {
	return "decide:" + stage
}

type PolicySource interface {
	RolePermissions() ([]RolePermissionRow, error)
	RoleInheritance() ([]RoleInheritanceRow, error)
}

type staticPolicySource struct {
	permissions []RolePermissionRow
	inheritance []RoleInheritanceRow
}

// NewStaticPolicySource serves the fixed leave workflow policy: every
// role may submit and check status, and each approver role decides only
// its own stage.
func NewStaticPolicySource() PolicySource {
	return &staticPolicySource{
		permissions: []RolePermissionRow{
			{Role: "employee", Resource: ResourceLeave, Action: ActionSubmit},
			{Role: "employee", Resource: ResourceLeave, Action: ActionStatus},
			{Role: "supervisor", Resource: ResourceLeave, Action: DecideAction("supervisor")},
			{Role: "hr", Resource: ResourceLeave, Action: DecideAction("hr")},
		},
		inheritance: []RoleInheritanceRow{
			{Role: "supervisor", Parent: "employee"},
			{Role: "hr", Parent: "employee"},
		},
	}
}

func (s *staticPolicySource) RolePermissions() ([]RolePermissionRow, error) {
	return s.permissions, nil
}

func (s *staticPolicySource) RoleInheritance() ([]RoleInheritanceRow, error) {
	return s.inheritance, nil
}
