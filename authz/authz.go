// Package authz is the single place platform roles are checked against
// actions, instead of string compares scattered through controllers.
package authz

import (
	models "github.com/sustainwear/donation-platform-go/models"
)

type Action string

const (
	ReviewApplications  Action = "review_applications"
	ManageOrganisations Action = "manage_organisations"
	ManageUsers         Action = "manage_users"
	ManageTeam          Action = "manage_team"
	TriageDonations     Action = "triage_donations"
	SubmitDonations     Action = "submit_donations"
)

var policy = map[Action][]string{
	ReviewApplications:  {models.RolePlatformAdmin},
	ManageOrganisations: {models.RolePlatformAdmin},
	ManageUsers:         {models.RolePlatformAdmin},
	ManageTeam:          {models.RoleOrgAdmin, models.RolePlatformAdmin},
	TriageDonations:     {models.RoleOrgStaff, models.RoleOrgAdmin, models.RolePlatformAdmin},
	SubmitDonations:     {models.RoleDonor, models.RoleOrgStaff, models.RoleOrgAdmin, models.RolePlatformAdmin},
}

// Can reports whether a platform role may perform an action.
func Can(role string, action Action) bool {
	for _, allowed := range policy[action] {
		if allowed == role {
			return true
		}
	}
	return false
}
