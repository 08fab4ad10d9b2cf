package access

import "github.com/google/uuid"

const (
	VisibilityCompany  = "company"
	VisibilityPersonal = "personal"
)

// Actor is the authenticated identity making a request. CompanyID is
// uuid.Nil exactly when the role is superadmin.
type Actor struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Role      Role
}

func (a Actor) IsSuperadmin() bool {
	return a.Role == RoleSuperadmin
}

// TaskRef carries the ownership facts the decision table consumes. It is
// deliberately detached from the task entity so the table stays testable
// without a store.
type TaskRef struct {
	CompanyID   uuid.UUID
	CreatedBy   uuid.UUID
	AssigneeIDs []uuid.UUID
	Visibility  string
}

func (t TaskRef) isAssignee(id uuid.UUID) bool {
	for _, a := range t.AssigneeIDs {
		if a == id {
			return true
		}
	}
	return false
}

// Operation is a task-level action subject to the decision table.
type Operation string

const (
	OpRead    Operation = "read"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpComment Operation = "comment"
)

// Decision is the outcome of a table lookup. Reason is for logs only and
// must never be echoed to the client verbatim when it would leak resource
// existence.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// CanAccessTask evaluates the role/tenancy/visibility decision table,
// first match wins.
func CanAccessTask(actor Actor, op Operation, ref TaskRef) Decision {
	if actor.IsSuperadmin() {
		return allow("superadmin")
	}

	if actor.CompanyID != ref.CompanyID {
		return deny("cross-tenant access")
	}

	if actor.Role.IsManagement() {
		// Personal tasks stay creator-private regardless of rank.
		if ref.Visibility == VisibilityPersonal {
			return deny("personal tasks are creator-private")
		}
		return allow("management over company task")
	}

	// Employee rows.
	switch op {
	case OpRead, OpComment:
		if ref.isAssignee(actor.ID) || actor.ID == ref.CreatedBy {
			return allow("assignee or creator")
		}
		return deny("employee is not assignee")
	case OpUpdate, OpDelete:
		if actor.ID == ref.CreatedBy || ref.isAssignee(actor.ID) {
			return allow("creator or assignee")
		}
		return deny("employee is neither creator nor assignee")
	default:
		return deny("unknown operation")
	}
}

// VisibilityFor stamps task visibility at creation from the creator's
// role. Employees cannot override it afterwards.
func VisibilityFor(role Role) string {
	if role == RoleEmployee {
		return VisibilityPersonal
	}
	return VisibilityCompany
}

// SelfAssignmentOnly reports whether the submitted assignee set is
// acceptable for an employee creator: empty or exactly {self}.
func SelfAssignmentOnly(actorID uuid.UUID, assignees []uuid.UUID) bool {
	for _, id := range assignees {
		if id != actorID {
			return false
		}
	}
	return true
}

// EmployeeRestrictedFields are the patch fields silently dropped from
// employee updates rather than rejected.
var EmployeeRestrictedFields = []string{"assignees", "createdBy", "visibility"}
