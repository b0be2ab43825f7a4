package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/sustainwear/donation-platform-go/config"
	models "github.com/sustainwear/donation-platform-go/models"
	store "github.com/sustainwear/donation-platform-go/store"
	utils "github.com/sustainwear/donation-platform-go/utils"
)

// ---------------- CREATE ----------------
func CreateDonation(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		donor, err := ensureLocalUser(c, cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not resolve user"})
			return
		}

		// --- Bind form fields ---
		var input struct {
			ItemName    string `form:"item_name" binding:"required"`
			Description string `form:"description"`
			Brand       string `form:"brand"`
			Colour      string `form:"colour"`
			SizeLabel   string `form:"size_label"`
			Category    string `form:"category"`
			Condition   string `form:"condition"`
			Season      string `form:"season"`
			CharityID   string `form:"charity_id" binding:"required"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// "ALL_CHARITIES" leaves the donation unbound, visible to every
		// charity's incoming queue.
		var orgID *primitive.ObjectID
		if input.CharityID != "ALL_CHARITIES" {
			oid, err := primitive.ObjectIDFromHex(input.CharityID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charity id"})
				return
			}
			org, err := cfg.Store.Organisations.FindByID(ctx, oid)
			if err == store.ErrNotFound {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charity selected"})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch charity"})
				return
			}
			if !org.Approved || org.Suspended {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charity selected"})
				return
			}
			orgID = &oid
		}

		// --- Handle image upload ---
		var imageURL string
		if fileHeader, err := c.FormFile("image"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
				return
			}
			imageURL, err = utils.UploadToCloudinary(file, fileHeader)
			file.Close()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "image upload failed",
					"details": err.Error(),
					"file":    fileHeader.Filename,
				})
				return
			}
		}

		// --- Save donation ---
		now := time.Now()
		donation := models.Donation{
			ID:             primitive.NewObjectID(),
			OrganisationID: orgID,
			DonorUserID:    donor.ID,
			Title:          input.ItemName,
			Description:    input.Description,
			Brand:          input.Brand,
			Colour:         input.Colour,
			SizeLabel:      input.SizeLabel,
			Category:       models.ValidCategory(input.Category),
			Condition:      models.ValidCondition(input.Condition),
			Season:         input.Season,
			Status:         models.DonationSubmitted,
			ImageURL:       imageURL,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("donations")
		if _, err := col.InsertOne(ctx, donation); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create donation"})
			return
		}

		c.JSON(http.StatusCreated, donation)
	}
}

// ---------------- LIST (donor's own) ----------------
func ListMyDonations(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		donor, err := ensureLocalUser(c, cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not resolve user"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("donations")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Find(ctx, bson.M{"donor_user_id": donor.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch donations"})
			return
		}

		var donations []models.Donation
		if err := cursor.All(ctx, &donations); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode donations"})
			return
		}

		if len(donations) == 0 {
			c.JSON(http.StatusOK, []models.Donation{})
			return
		}

		// --- Pick the most recently updated donation ---
		latest := donations[0]
		for _, d := range donations {
			if d.UpdatedAt.After(latest.UpdatedAt) {
				latest = d
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, donations)
	}
}

// ---------------- GET ----------------
func GetDonation(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		donationID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		user, err := ensureLocalUser(c, cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not resolve user"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var donation models.Donation
		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("donations").
			FindOne(ctx, bson.M{"_id": donationID}).
			Decode(&donation)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
			return
		}

		if !canSeeDonation(ctx, cfg, user, &donation) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		etag := utils.GenerateETag(donation.ID, donation.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, donation)
	}
}

// canSeeDonation: owners and platform admins always; charity staff when the
// donation is unbound or bound to their own organisation.
func canSeeDonation(ctx context.Context, cfg *config.Config, user *models.User, donation *models.Donation) bool {
	if user.PlatformRole == models.RolePlatformAdmin || donation.DonorUserID == user.ID {
		return true
	}
	if user.PlatformRole != models.RoleOrgStaff && user.PlatformRole != models.RoleOrgAdmin {
		return false
	}
	if donation.OrganisationID == nil {
		return true
	}
	if user.DefaultProviderOrgID == "" {
		return false
	}
	org, err := cfg.Store.Organisations.FindByProviderOrgID(ctx, user.DefaultProviderOrgID)
	if err != nil {
		return false
	}
	return org.ID == *donation.OrganisationID
}

// ---------------- UPDATE (donor, while SUBMITTED) ----------------
func UpdateDonation(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		donor, err := ensureLocalUser(c, cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not resolve user"})
			return
		}

		donationID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("donations")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var existing models.Donation
		if err := col.FindOne(ctx, bson.M{"_id": donationID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
			return
		}
		if existing.DonorUserID != donor.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		if existing.Status != models.DonationSubmitted {
			c.JSON(http.StatusConflict, gin.H{"error": "only pending donations can be edited"})
			return
		}

		var input struct {
			ItemName    string `form:"item_name"`
			Description string `form:"description"`
			Brand       string `form:"brand"`
			Colour      string `form:"colour"`
			SizeLabel   string `form:"size_label"`
			Category    string `form:"category"`
			Condition   string `form:"condition"`
			Season      string `form:"season"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		update := bson.M{"updated_at": time.Now()}
		if input.ItemName != "" {
			update["title"] = input.ItemName
		}
		if input.Description != "" {
			update["description"] = input.Description
		}
		if input.Brand != "" {
			update["brand"] = input.Brand
		}
		if input.Colour != "" {
			update["colour"] = input.Colour
		}
		if input.SizeLabel != "" {
			update["size_label"] = input.SizeLabel
		}
		if input.Category != "" {
			update["category"] = models.ValidCategory(input.Category)
		}
		if input.Condition != "" {
			update["condition"] = models.ValidCondition(input.Condition)
		}
		if input.Season != "" {
			update["season"] = input.Season
		}

		// --- Handle replacement image ---
		if fileHeader, err := c.FormFile("image"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open image"})
				return
			}
			url, err := utils.UploadToCloudinary(file, fileHeader)
			file.Close()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed", "details": err.Error()})
				return
			}
			if existing.ImageURL != "" {
				utils.DeleteFromCloudinary(existing.ImageURL)
			}
			update["image_url"] = url
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		if _, err := col.UpdateOne(ctx, bson.M{"_id": donationID}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update donation"})
			return
		}

		var updated models.Donation
		if err := col.FindOne(ctx, bson.M{"_id": donationID}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated donation"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":  "donation updated successfully",
			"donation": updated,
		})
	}
}

// ---------------- DELETE (donor's own) ----------------
func DeleteDonation(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := ensureLocalUser(c, cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not resolve user"})
			return
		}

		donationID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("donations")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Donation
		if err := col.FindOne(ctx, bson.M{"_id": donationID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
			return
		}
		if user.PlatformRole != models.RolePlatformAdmin && existing.DonorUserID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		res, err := col.DeleteOne(ctx, bson.M{"_id": donationID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete donation"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
			return
		}

		if existing.ImageURL != "" {
			utils.DeleteFromCloudinary(existing.ImageURL)
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "donation deleted successfully",
			"id":      donationID.Hex(),
		})
	}
}

// ---------------- CHARITY QUEUE ----------------
func ListCharityQueue(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := resolveActorOrg(c, cfg)
		if !ok {
			return
		}

		status := c.Query("status")
		if status != "" && !models.ValidDonationStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("donations")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Find(ctx, charityQueueFilter(orgID, status))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch donations"})
			return
		}

		var donations []models.Donation
		if err := cursor.All(ctx, &donations); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode donations"})
			return
		}
		if donations == nil {
			donations = []models.Donation{}
		}
		c.JSON(http.StatusOK, donations)
	}
}

// resolveActorOrg finds the local organisation the caller triages for.
// Platform admins may name one with ?organisation_id.
func resolveActorOrg(c *gin.Context, cfg *config.Config) (primitive.ObjectID, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.GetString("role") == models.RolePlatformAdmin {
		if hex := c.Query("organisation_id"); hex != "" {
			oid, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organisation id"})
				return primitive.NilObjectID, false
			}
			return oid, true
		}
	}

	user, err := ensureLocalUser(c, cfg)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "could not resolve user"})
		return primitive.NilObjectID, false
	}
	if user.DefaultProviderOrgID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "no organisation bound to this account"})
		return primitive.NilObjectID, false
	}
	org, err := cfg.Store.Organisations.FindByProviderOrgID(ctx, user.DefaultProviderOrgID)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "organisation not found"})
		return primitive.NilObjectID, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch organisation"})
		return primitive.NilObjectID, false
	}
	if org.Suspended {
		c.JSON(http.StatusForbidden, gin.H{"error": "organisation is suspended"})
		return primitive.NilObjectID, false
	}
	return org.ID, true
}

// ---------------- STATUS UPDATE ----------------
func UpdateDonationStatus(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := resolveActorOrg(c, cfg)
		if !ok {
			return
		}

		donationID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		var input struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !models.ValidDonationStatus(input.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("donations")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Scoped by the queue filter so staff cannot touch another
		// charity's donations.
		filter := charityQueueFilter(orgID, "")
		filter["_id"] = donationID

		res, err := col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
			"status":     input.Status,
			"updated_at": time.Now(),
		}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update donation"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "status updated", "status": input.Status})
	}
}
