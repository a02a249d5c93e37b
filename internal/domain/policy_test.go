package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed_FullMatrix(t *testing.T) {
	tests := []struct {
		action  Action
		admin   bool
		manager bool
		user    bool
	}{
		{ActionViewProducts, true, true, true},
		{ActionAddProduct, true, true, false},
		{ActionUpdateProduct, true, true, false},
		{ActionDeleteProduct, true, true, false},
		{ActionSellProduct, true, false, true},
		{ActionViewSales, true, true, true},
		{ActionRegisterUser, true, false, false},
		{ActionManageUsers, true, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.admin, Allowed(RoleAdmin, tt.action), "admin")
			assert.Equal(t, tt.manager, Allowed(RoleManager, tt.action), "manager")
			assert.Equal(t, tt.user, Allowed(RoleUser, tt.action), "user")
		})
	}
}

func TestAllowed_UnknownRoleAndAction(t *testing.T) {
	assert.False(t, Allowed(Role("superuser"), ActionAddProduct))
	assert.False(t, Allowed(RoleAdmin, Action("reboot")))
	assert.False(t, Allowed(Role(""), ActionViewProducts))
}

func TestActionsFor_MirrorsPolicyTable(t *testing.T) {
	assert.Equal(t, []Action{
		ActionViewProducts,
		ActionAddProduct,
		ActionUpdateProduct,
		ActionDeleteProduct,
		ActionSellProduct,
		ActionViewSales,
		ActionRegisterUser,
		ActionManageUsers,
	}, ActionsFor(RoleAdmin))

	assert.Equal(t, []Action{
		ActionViewProducts,
		ActionAddProduct,
		ActionUpdateProduct,
		ActionDeleteProduct,
		ActionViewSales,
	}, ActionsFor(RoleManager))

	assert.Equal(t, []Action{
		ActionViewProducts,
		ActionSellProduct,
		ActionViewSales,
	}, ActionsFor(RoleUser))

	assert.Empty(t, ActionsFor(Role("ghost")))
}

func TestAllowedRoles_ReturnsCopy(t *testing.T) {
	roles := AllowedRoles(ActionSellProduct)
	assert.Equal(t, []Role{RoleAdmin, RoleUser}, roles)

	roles[0] = Role("mutated")
	assert.Equal(t, []Role{RoleAdmin, RoleUser}, AllowedRoles(ActionSellProduct))
}

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleManager.IsValid())
	assert.True(t, RoleUser.IsValid())
	assert.False(t, Role("root").IsValid())
	assert.False(t, Role("").IsValid())
}
