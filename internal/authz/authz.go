// Package authz is the single place where roles and ownership are turned
// into allow or deny decisions.
package authz

import (
	"slices"

	"community-service/internal/apperr"
	"community-service/internal/models"
)

// Principal is the authenticated caller taken from the bearer token.
type Principal struct {
	AccountID int
	Username  string
	Role      models.Role
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

type Capability string

const (
	RegisterAdmin Capability = "account.register_admin"
	ListAccounts  Capability = "account.list"
	ReadAccount   Capability = "account.read"
	RenameAccount Capability = "account.rename"
	ChangeRole    Capability = "account.change_role"
	DeleteAccount Capability = "account.delete"

	ManageCompany Capability = "company.manage"
	ReadCompany   Capability = "company.read"

	RegisterStaff Capability = "staff.register"
	ListStaff     Capability = "staff.list"
	ReadStaff     Capability = "staff.read"
	UpdateStaff   Capability = "staff.update"
	DeleteStaff   Capability = "staff.delete"

	RegisterClient    Capability = "client.register"
	ListClients       Capability = "client.list"
	ListOwnCompany    Capability = "client.list_company"
	ReadClient        Capability = "client.read"
	UpdateClient      Capability = "client.update"
	DeleteClient      Capability = "client.delete"
	BookTask          Capability = "task.create"
	EditTask          Capability = "task.edit"
	DeleteTask        Capability = "task.delete"
	SetTaskStatus     Capability = "task.status"
	ReadTask          Capability = "task.read"
	ListAllTasks      Capability = "task.list_all"
	ListStaffTasks    Capability = "task.list_staff"
	ListClientTasks   Capability = "task.list_client"
	ReadWeek          Capability = "task.current_week"
	ListOwnTasks      Capability = "task.list_own"
	UploadMedia       Capability = "media.upload"
	ListMedia         Capability = "media.list"
	DeleteMedia       Capability = "media.delete"
	SubscribeSchedule Capability = "schedule.subscribe"
)

type rule struct {
	roles []models.Role // always allowed
	owner bool          // the owning account is allowed regardless of role
}

var (
	admin       = []models.Role{models.RoleAdmin}
	adminStaff  = []models.Role{models.RoleAdmin, models.RoleStaff}
	staffOnly   = []models.Role{models.RoleStaff}
	staffClient = []models.Role{models.RoleStaff, models.RoleClient}
	everyone    = []models.Role{models.RoleAdmin, models.RoleStaff, models.RoleClient}
)

var policy = map[Capability]rule{
	RegisterAdmin: {roles: admin},
	ListAccounts:  {roles: admin},
	ReadAccount:   {roles: admin, owner: true},
	RenameAccount: {roles: admin, owner: true},
	ChangeRole:    {roles: admin},
	DeleteAccount: {roles: admin},

	ManageCompany: {roles: admin},
	ReadCompany:   {roles: everyone},

	RegisterStaff: {roles: admin, owner: true},
	ListStaff:     {roles: admin},
	ReadStaff:     {roles: admin, owner: true},
	UpdateStaff:   {roles: admin, owner: true},
	DeleteStaff:   {roles: admin},

	RegisterClient: {roles: adminStaff, owner: true},
	ListClients:    {roles: admin},
	ListOwnCompany: {roles: staffOnly},
	ReadClient:     {roles: adminStaff, owner: true},
	UpdateClient:   {roles: adminStaff, owner: true},
	DeleteClient:   {roles: adminStaff},

	// Only staff book shifts, and a shift is always booked for the caller.
	BookTask: {roles: staffOnly},
	// Only the owning staff member edits a shift. Admins are not exempt.
	EditTask:        {owner: true},
	DeleteTask:      {roles: admin, owner: true},
	SetTaskStatus:   {roles: admin, owner: true},
	ReadTask:        {roles: adminStaff, owner: true},
	ListAllTasks:    {roles: admin},
	ListStaffTasks:  {roles: admin, owner: true},
	ListClientTasks: {roles: adminStaff, owner: true},
	ReadWeek:        {roles: staffClient},
	ListOwnTasks:    {roles: staffClient},

	UploadMedia: {roles: admin, owner: true},
	ListMedia:   {roles: adminStaff, owner: true},
	DeleteMedia: {roles: admin, owner: true},

	SubscribeSchedule: {roles: everyone},
}

// Allow reports whether p holds capability c. owners are the account ids
// that own the resource; zero ids are ignored.
func Allow(p Principal, c Capability, owners ...int) bool {
	r, ok := policy[c]
	if !ok || p.AccountID == 0 || !p.Role.Valid() {
		return false
	}
	if slices.Contains(r.roles, p.Role) {
		return true
	}
	if r.owner {
		for _, id := range owners {
			if id != 0 && id == p.AccountID {
				return true
			}
		}
	}
	return false
}

// Require is Allow returning a Forbidden error.
func Require(p Principal, c Capability, owners ...int) error {
	if Allow(p, c, owners...) {
		return nil
	}
	return apperr.Forbiddenf("Not authorized to perform this action!")
}
