package domain

// ApproverRoles may approve, reject and administer
var ApproverRoles = []Role{RoleAdmin, RoleOwner}

// Authorize reports whether actor satisfies any of the required roles.
// An empty requirement only asks for a known role.
func Authorize(actor Role, required ...Role) bool {
	if !actor.Valid() {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if actor == r {
			return true
		}
	}
	return false
}

// IsApprover is Authorize against ApproverRoles
func IsApprover(actor Role) bool {
	return Authorize(actor, ApproverRoles...)
}

// CanDeleteBooking allows approvers and the user who created the booking
func CanDeleteBooking(actor Actor, ownerID *uint) bool {
	if IsApprover(actor.Role) {
		return true
	}
	return ownerID != nil && actor.ID != 0 && *ownerID == actor.ID
}
