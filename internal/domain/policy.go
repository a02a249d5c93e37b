package domain

// Action is a protected operation a caller may attempt.
type Action string

// Protected actions.
const (
	ActionViewProducts  Action = "view_products"
	ActionAddProduct    Action = "add_product"
	ActionUpdateProduct Action = "update_product"
	ActionDeleteProduct Action = "delete_product"
	ActionSellProduct   Action = "sell_product"
	ActionViewSales     Action = "view_sales"
	ActionRegisterUser  Action = "register_user"
	ActionManageUsers   Action = "manage_users"
)

// actionOrder fixes the iteration order for ActionsFor.
var actionOrder = []Action{
	ActionViewProducts,
	ActionAddProduct,
	ActionUpdateProduct,
	ActionDeleteProduct,
	ActionSellProduct,
	ActionViewSales,
	ActionRegisterUser,
	ActionManageUsers,
}

// policy maps each action to the set of roles allowed to perform it.
// The sets are not nested (a manager cannot sell, a user cannot manage
// products), so membership is checked per action instead of comparing
// roles against a threshold. This table is the single source of truth
// for both the server-side gate (httputil.RequireAction) and the
// client-side navigation policy (ActionsFor).
var policy = map[Action][]Role{
	ActionViewProducts:  {RoleAdmin, RoleManager, RoleUser},
	ActionAddProduct:    {RoleAdmin, RoleManager},
	ActionUpdateProduct: {RoleAdmin, RoleManager},
	ActionDeleteProduct: {RoleAdmin, RoleManager},
	ActionSellProduct:   {RoleAdmin, RoleUser},
	ActionViewSales:     {RoleAdmin, RoleManager, RoleUser},
	ActionRegisterUser:  {RoleAdmin},
	ActionManageUsers:   {RoleAdmin},
}

// AllowedRoles returns the set of roles permitted to perform the action.
// Unknown actions have an empty allowed set.
func AllowedRoles(a Action) []Role {
	roles := policy[a]
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// Allowed reports whether the role is in the action's allowed set.
func Allowed(role Role, a Action) bool {
	for _, r := range policy[a] {
		if r == role {
			return true
		}
	}
	return false
}

// ActionsFor returns the actions visible to the role, in a stable order.
// This drives client navigation only; every action is re-checked
// server-side on the corresponding route.
func ActionsFor(role Role) []Action {
	actions := make([]Action, 0, len(actionOrder))
	for _, a := range actionOrder {
		if Allowed(role, a) {
			actions = append(actions, a)
		}
	}
	return actions
}
