package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/sustainwear/donation-platform-go/config"
	models "github.com/sustainwear/donation-platform-go/models"
)

// ---------------- LIST (public, approved only) ----------------
// Feeds the donor form's charity picker.
func ListCharities(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		orgs, err := cfg.Store.Organisations.List(ctx, true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch charities"})
			return
		}

		active := []models.Organisation{}
		for _, org := range orgs {
			if !org.Suspended {
				active = append(active, org)
			}
		}
		c.JSON(http.StatusOK, active)
	}
}

// ---------------- LIST (admin, all) ----------------
func ListOrganisations(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		orgs, err := cfg.Store.Organisations.List(ctx, false)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch organisations"})
			return
		}
		if orgs == nil {
			orgs = []models.Organisation{}
		}
		c.JSON(http.StatusOK, orgs)
	}
}

// ---------------- SUSPEND / UNSUSPEND ----------------
func SuspendOrganisation(cfg *config.Config) gin.HandlerFunc {
	return setSuspension(cfg, true, "organisation suspended")
}

func UnsuspendOrganisation(cfg *config.Config) gin.HandlerFunc {
	return setSuspension(cfg, false, "organisation unsuspended")
}

func setSuspension(cfg *config.Config, suspend bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organisation id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		o := newOnboarding(cfg)
		if suspend {
			err = o.SuspendOrganisation(ctx, orgID)
		} else {
			err = o.UnsuspendOrganisation(ctx, orgID)
		}
		if err != nil {
			renderWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": message})
	}
}

// ---------------- DELETE ----------------
func DeleteOrganisation(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organisation id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if err := newOnboarding(cfg).DeleteOrganisation(ctx, orgID); err != nil {
			renderWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "organisation deleted",
			"id":      orgID.Hex(),
		})
	}
}
