package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/sustainwear/donation-platform-go/config"
	models "github.com/sustainwear/donation-platform-go/models"
	provider "github.com/sustainwear/donation-platform-go/provider"
)

// ---------------- ME ----------------
func Me(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := ensureLocalUser(c, cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not resolve user"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ---------------- LIST (platform admin) ----------------
func ListUsers(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		users, err := cfg.Store.Users.List(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch users"})
			return
		}
		if users == nil {
			users = []models.User{}
		}
		c.JSON(http.StatusOK, users)
	}
}

// ---------------- BAN / UNBAN ----------------
func BanUser(cfg *config.Config) gin.HandlerFunc {
	return setUserBan(cfg, true)
}

func UnbanUser(cfg *config.Config) gin.HandlerFunc {
	return setUserBan(cfg, false)
}

func setUserBan(cfg *config.Config, banned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		providerUserID := c.Param("id")
		if providerUserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
			return
		}
		if providerUserID == c.GetString("user_id") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot change your own ban state"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		if banned {
			err = cfg.Provider.BanUser(ctx, providerUserID)
		} else {
			err = cfg.Provider.UnbanUser(ctx, providerUserID)
		}
		if provider.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider request failed", "details": err.Error()})
			return
		}

		// Mirror locally. The provider already holds the truth so a miss here
		// only delays the next read-time sync.
		if err := cfg.Store.Users.SetSuspendedByProviderUserID(ctx, providerUserID, banned); err != nil {
			log.Printf("could not mirror ban state for %s: %v", providerUserID, err)
		}

		c.JSON(http.StatusOK, gin.H{"id": providerUserID, "suspended": banned})
	}
}

// ---------------- DELETE ----------------
func DeleteUser(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		providerUserID := c.Param("id")
		if providerUserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
			return
		}
		if providerUserID == c.GetString("user_id") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Tolerate the user already being gone in the provider; the local
		// mirror still needs cleaning up either way.
		if err := cfg.Provider.DeleteUser(ctx, providerUserID); err != nil && !provider.IsNotFound(err) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider request failed", "details": err.Error()})
			return
		}

		if err := cfg.Store.Users.DeleteByProviderUserID(ctx, providerUserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "deleted in provider but local cleanup failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully", "id": providerUserID})
	}
}
