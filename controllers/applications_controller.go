package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/sustainwear/donation-platform-go/config"
	models "github.com/sustainwear/donation-platform-go/models"
	utils "github.com/sustainwear/donation-platform-go/utils"
	workflows "github.com/sustainwear/donation-platform-go/workflows"
)

func newOnboarding(cfg *config.Config) *workflows.Onboarding {
	o := workflows.NewOnboarding(cfg.Store.Applications, cfg.Store.Organisations, cfg.Store.Users, cfg.Store.Donations, cfg.Provider)
	o.AllowAccountUpgrade = cfg.AllowAccountUpgrade
	return o
}

// ---------------- SUBMIT (public) ----------------
func SubmitApplication(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			OrganisationName string `json:"organisation_name" binding:"required"`
			CharityNumber    string `json:"charity_number"`
			ContactName      string `json:"contact_name" binding:"required"`
			ContactEmail     string `json:"contact_email" binding:"required,email"`
			Website          string `json:"website"`
			Mission          string `json:"mission"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Mission and charity number travel in the free-text message.
		var lines []string
		if input.Mission != "" {
			lines = append(lines, "Mission: "+input.Mission)
		}
		if input.CharityNumber != "" {
			lines = append(lines, "Charity number: "+input.CharityNumber)
		}

		app := models.CharityApplication{
			ID:           primitive.NewObjectID(),
			OrgName:      input.OrganisationName,
			ContactName:  input.ContactName,
			ContactEmail: input.ContactEmail,
			Website:      input.Website,
			Message:      strings.Join(lines, "\n"),
			Status:       models.ApplicationPending,
			CreatedAt:    time.Now(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := cfg.Store.Applications.Insert(ctx, &app); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save application"})
			return
		}

		c.JSON(http.StatusCreated, app)
	}
}

// ---------------- LIST ----------------
func ListApplications(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		apps, err := cfg.Store.Applications.List(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch applications"})
			return
		}
		if apps == nil {
			apps = []models.CharityApplication{}
		}
		c.JSON(http.StatusOK, apps)
	}
}

// ---------------- APPROVE ----------------
func ApproveApplication(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		appID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		res, err := newOnboarding(cfg).ApproveApplication(ctx, appID)
		if err != nil {
			renderWorkflowError(c, err)
			return
		}

		// The temporary password in the response is the admin's only copy
		// besides this email.
		if res.IsNewUser {
			if err := utils.SendCredentialsEmail(res.LoginEmail, res.Organisation.ContactName, res.Organisation.Name, res.TempPassword); err != nil {
				log.Printf("could not email credentials to %s: %v", res.LoginEmail, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "application approved",
			"organisation":  res.Organisation,
			"login_email":   res.LoginEmail,
			"temp_password": res.TempPassword,
			"is_new_user":   res.IsNewUser,
		})
	}
}

// ---------------- REJECT ----------------
func RejectApplication(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		appID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := newOnboarding(cfg).RejectApplication(ctx, appID); err != nil {
			renderWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "application rejected"})
	}
}
