package routes

import (
	"github.com/gin-gonic/gin"

	authz "github.com/sustainwear/donation-platform-go/authz"
	config "github.com/sustainwear/donation-platform-go/config"
	controllers "github.com/sustainwear/donation-platform-go/controllers"
	middleware "github.com/sustainwear/donation-platform-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// public
	r.POST("/applications", controllers.SubmitApplication(cfg))
	r.GET("/charities", controllers.ListCharities(cfg))

	// protected
	auth := middleware.AuthMiddleware(cfg)

	apps := r.Group("/applications")
	apps.Use(auth, middleware.RequireAction(authz.ReviewApplications))
	{
		apps.GET("", controllers.ListApplications(cfg))
		apps.POST("/:id/approve", controllers.ApproveApplication(cfg))
		apps.POST("/:id/reject", controllers.RejectApplication(cfg))
	}

	orgs := r.Group("/organisations")
	orgs.Use(auth)
	{
		admin := orgs.Group("")
		admin.Use(middleware.RequireAction(authz.ManageOrganisations))
		{
			admin.GET("", controllers.ListOrganisations(cfg))
			admin.POST("/:id/suspend", controllers.SuspendOrganisation(cfg))
			admin.POST("/:id/unsuspend", controllers.UnsuspendOrganisation(cfg))
			admin.DELETE("/:id", controllers.DeleteOrganisation(cfg))
		}

		team := orgs.Group("/:id/members")
		team.Use(middleware.RequireAction(authz.ManageTeam))
		{
			team.GET("", controllers.ListTeamMembers(cfg))
			team.POST("", controllers.InviteTeamMember(cfg))
			team.PATCH("/:userId", controllers.UpdateTeamMemberRole(cfg))
			team.DELETE("/:userId", controllers.RemoveTeamMember(cfg))
		}
	}

	donations := r.Group("/donations")
	donations.Use(auth)
	{
		donations.POST("", middleware.RequireAction(authz.SubmitDonations), controllers.CreateDonation(cfg))
		donations.GET("", controllers.ListMyDonations(cfg))
		donations.GET("/:id", controllers.GetDonation(cfg))
		donations.PATCH("/:id", controllers.UpdateDonation(cfg))
		donations.DELETE("/:id", controllers.DeleteDonation(cfg))
	}

	queue := r.Group("/charity/donations")
	queue.Use(auth, middleware.RequireAction(authz.TriageDonations))
	{
		queue.GET("", controllers.ListCharityQueue(cfg))
		queue.PATCH("/:id/status", controllers.UpdateDonationStatus(cfg))
	}

	users := r.Group("/users")
	users.Use(auth, middleware.RequireAction(authz.ManageUsers))
	{
		users.GET("", controllers.ListUsers(cfg))
		users.POST("/:id/ban", controllers.BanUser(cfg))
		users.POST("/:id/unban", controllers.UnbanUser(cfg))
		users.DELETE("/:id", controllers.DeleteUser(cfg))
	}

	me := r.Group("/me")
	me.Use(auth)
	{
		me.GET("", controllers.Me(cfg))
	}
}
