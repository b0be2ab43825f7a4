package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/sustainwear/donation-platform-go/config"
	models "github.com/sustainwear/donation-platform-go/models"
	store "github.com/sustainwear/donation-platform-go/store"
	workflows "github.com/sustainwear/donation-platform-go/workflows"
)

// ensureLocalUser returns the local row for the authenticated caller,
// creating it on first access and re-syncing it when the provider's
// metadata has drifted. The provider is authoritative for role, org binding
// and ban state; the local row is a cache.
func ensureLocalUser(c *gin.Context, cfg *config.Config) (*models.User, error) {
	providerUserID := c.GetString("user_id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pu, err := cfg.Provider.GetUser(ctx, providerUserID)
	if err != nil {
		return nil, err
	}

	role := pu.Metadata.Role
	if role == "" {
		role = models.RoleDonor
	}
	name := pu.FirstName
	if pu.LastName != "" {
		name += " " + pu.LastName
	}

	local, err := cfg.Store.Users.FindByProviderUserID(ctx, providerUserID)
	if err == store.ErrNotFound {
		now := time.Now()
		local = &models.User{
			ID:                   primitive.NewObjectID(),
			ProviderUserID:       providerUserID,
			Email:                pu.Email,
			Name:                 name,
			PlatformRole:         role,
			DefaultProviderOrgID: pu.Metadata.DefaultOrganisationID,
			Suspended:            pu.Banned,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := cfg.Store.Users.Insert(ctx, local); err != nil {
			return nil, err
		}
		return local, nil
	}
	if err != nil {
		return nil, err
	}

	if local.PlatformRole != role ||
		local.DefaultProviderOrgID != pu.Metadata.DefaultOrganisationID ||
		local.Email != pu.Email ||
		local.Name != name ||
		local.Suspended != pu.Banned {
		local.PlatformRole = role
		local.DefaultProviderOrgID = pu.Metadata.DefaultOrganisationID
		local.Email = pu.Email
		local.Name = name
		local.Suspended = pu.Banned
		if err := cfg.Store.Users.Sync(ctx, local); err != nil {
			log.Printf("could not sync user %s: %v", providerUserID, err)
		}
	}
	return local, nil
}

// renderWorkflowError maps a workflow failure to an HTTP response. Expected
// conditions keep their message; provider and persistence failures get a
// class-specific status so the dashboard can tell them apart.
func renderWorkflowError(c *gin.Context, err error) {
	var provErr *workflows.ProviderError
	var perErr *workflows.PersistenceError

	switch {
	case err == workflows.ErrApplicationNotFound,
		err == workflows.ErrOrganisationNotFound,
		err == workflows.ErrUserNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err == workflows.ErrAlreadyApproved,
		err == workflows.ErrAlreadyRejected,
		err == workflows.ErrAlreadyMember,
		err == workflows.ErrEmailInUse:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err == workflows.ErrNoContactEmail:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &provErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider request failed", "details": provErr.Error()})
	case errors.As(err, &perErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "saved in the identity provider but not locally; manual reconciliation required",
			"details": perErr.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
