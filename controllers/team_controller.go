package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/sustainwear/donation-platform-go/config"
	models "github.com/sustainwear/donation-platform-go/models"
	provider "github.com/sustainwear/donation-platform-go/provider"
	store "github.com/sustainwear/donation-platform-go/store"
	utils "github.com/sustainwear/donation-platform-go/utils"
	workflows "github.com/sustainwear/donation-platform-go/workflows"
)

func newTeam(cfg *config.Config) *workflows.Team {
	return workflows.NewTeam(cfg.Store.Organisations, cfg.Store.Users, cfg.Provider)
}

// orgRoleFromInput maps the API's "admin"/"member" to provider org roles.
func orgRoleFromInput(role string) (string, bool) {
	switch role {
	case "admin":
		return provider.OrgRoleAdmin, true
	case "member", "":
		return provider.OrgRoleMember, true
	}
	return "", false
}

// requireOrgAccess ensures the caller manages this organisation: platform
// admins manage any org, org admins only the one their account is bound to.
func requireOrgAccess(c *gin.Context, cfg *config.Config, orgID primitive.ObjectID) bool {
	if c.GetString("role") == models.RolePlatformAdmin {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	org, err := cfg.Store.Organisations.FindByID(ctx, orgID)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "organisation not found"})
		return false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch organisation"})
		return false
	}

	user, err := ensureLocalUser(c, cfg)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "could not resolve user"})
		return false
	}
	if user.DefaultProviderOrgID != org.ProviderOrgID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return false
	}
	return true
}

// ---------------- LIST ----------------
func ListTeamMembers(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organisation id"})
			return
		}
		if !requireOrgAccess(c, cfg, orgID) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		members, err := newTeam(cfg).ListMembers(ctx, orgID)
		if err != nil {
			renderWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, members)
	}
}

// ---------------- INVITE ----------------
func InviteTeamMember(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organisation id"})
			return
		}
		if !requireOrgAccess(c, cfg, orgID) {
			return
		}

		var input struct {
			Email string `json:"email" binding:"required,email"`
			Name  string `json:"name"`
			Role  string `json:"role"` // "admin" or "member", defaults to member
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		orgRole, ok := orgRoleFromInput(input.Role)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		res, err := newTeam(cfg).InviteMember(ctx, orgID, input.Email, input.Name, orgRole)
		if err != nil {
			renderWorkflowError(c, err)
			return
		}

		if res.IsNewUser {
			orgName := ""
			if org, err := cfg.Store.Organisations.FindByID(ctx, orgID); err == nil {
				orgName = org.Name
			}
			if err := utils.SendCredentialsEmail(res.LoginEmail, input.Name, orgName, res.TempPassword); err != nil {
				log.Printf("could not email credentials to %s: %v", res.LoginEmail, err)
			}
		}

		c.JSON(http.StatusOK, res)
	}
}

// ---------------- ROLE CHANGE ----------------
func UpdateTeamMemberRole(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organisation id"})
			return
		}
		if !requireOrgAccess(c, cfg, orgID) {
			return
		}

		var input struct {
			Role string `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		orgRole, ok := orgRoleFromInput(input.Role)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := newTeam(cfg).ChangeMemberRole(ctx, orgID, c.Param("userId"), orgRole); err != nil {
			renderWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "role updated"})
	}
}

// ---------------- REMOVE ----------------
func RemoveTeamMember(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organisation id"})
			return
		}
		if !requireOrgAccess(c, cfg, orgID) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := newTeam(cfg).RemoveMember(ctx, orgID, c.Param("userId")); err != nil {
			renderWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "member removed"})
	}
}
