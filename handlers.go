package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cardtrack/models"
	"cardtrack/pkg/checklist"
	"cardtrack/pkg/match"
	"cardtrack/pkg/ocr"
	"cardtrack/pkg/scan"
	"cardtrack/pkg/vision"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// recognizer is the text-recognition backend used by the scan endpoints.
// Package-level so tests and alternate deployments can swap it.
var recognizer ocr.Recognizer = &ocr.Tesseract{}

func setupRoutes(r *gin.Engine) {
	r.GET("/health", healthHandler)
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.GET("/images/*path", serveImageHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/scan", scanHandler)
	authGroup.POST("/cards", createCardHandler)
	authGroup.GET("/cards", listCardsHandler)
	authGroup.DELETE("/cards/:id", deleteCardHandler)
	authGroup.POST("/upload-image", uploadImageHandler)
	authGroup.GET("/uploads", listUploadsHandler)
	authGroup.POST("/checklist/import", importChecklistHandler)
	authGroup.GET("/checklist", listChecklistHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": "cardtrack"})
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	var user models.User
	if err := db.Where("username = ?", unameVal.(string)).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := Register(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString})
}

// scanHandler runs the full pipeline on an uploaded photo against the
// current checklist snapshot.
func scanHandler(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open upload"})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	img, err := scan.Decode(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not decode image, use jpg/png"})
		return
	}

	// Checklist snapshot is read once per request; no caching.
	entries, err := checklist.Snapshot(db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checklist query failed"})
		return
	}

	res, err := scan.Scan(img, recognizer, entries, match.DefaultLimit)
	if err != nil {
		log.Printf("scan failed for %s: %v", fh.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"extracted":  res.Fields,
		"confidence": res.Confidence,
		"candidates": res.Candidates,
	})
}

// cardPayload mirrors models.Card's user-settable fields.
type cardPayload struct {
	Sport            *string  `json:"sport"`
	Year             *int     `json:"year"`
	Brand            *string  `json:"brand"`
	SetName          *string  `json:"set_name"`
	Player           *string  `json:"player"`
	Team             *string  `json:"team"`
	CardNumber       *string  `json:"card_number"`
	Parallel         *string  `json:"parallel"`
	Condition        *string  `json:"condition"`
	Grader           *string  `json:"grader"`
	Grade            *string  `json:"grade"`
	Notes            *string  `json:"notes"`
	ImageFrontPath   *string  `json:"image_front_path"`
	ImageCroppedPath *string  `json:"image_cropped_path"`
	OCRText          *string  `json:"ocr_text"`
	Confidence       *float64 `json:"confidence"`
}

func createCardHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req cardPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card := models.Card{
		UserID:           user.ID,
		Sport:            req.Sport,
		Year:             req.Year,
		Brand:            req.Brand,
		SetName:          req.SetName,
		Player:           req.Player,
		Team:             req.Team,
		CardNumber:       req.CardNumber,
		Parallel:         req.Parallel,
		Condition:        req.Condition,
		Grader:           req.Grader,
		Grade:            req.Grade,
		Notes:            req.Notes,
		ImageFrontPath:   req.ImageFrontPath,
		ImageCroppedPath: req.ImageCroppedPath,
		OCRText:          req.OCRText,
		Confidence:       req.Confidence,
	}
	if err := db.Create(&card).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": card.ID})
}

// listCardsHandler lists the authenticated user's cards, newest first
// (admin sees all).
func listCardsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var cards []models.Card
	q := db.Model(&models.Card{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("created_at desc").Limit(500).Find(&cards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, cards)
}

func deleteCardHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	role, _ := c.Get("role")
	q := db.Where("id = ?", id)
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Delete(&models.Card{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// uploadImageHandler stores the original photo and its rectified crop
// under uuid names and records an Upload row for the user.
func uploadImageHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open upload"})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	img, err := scan.Decode(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not decode image, use jpg/png"})
		return
	}

	uid := strings.ReplaceAll(uuid.New().String(), "-", "")
	relFront := filepath.Join("images", uid+"_front.jpg")
	if err := imaging.Save(imaging.Clone(img), filepath.Join(uploadBaseDir(), relFront)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failed"})
		return
	}
	cropped, _ := vision.Rectify(img)
	relCrop := filepath.Join("images", uid+"_cropped.jpg")
	croppedSaved := true
	if err := imaging.Save(cropped, filepath.Join(uploadBaseDir(), relCrop)); err != nil {
		log.Printf("failed to store cropped image %s: %v", relCrop, err)
		relCrop = ""
		croppedSaved = false
	}

	up := models.Upload{
		FileName:    fh.Filename,
		StorePath:   relFront,
		CroppedPath: relCrop,
		UserID:      user.ID,
		ContentType: fh.Header.Get("Content-Type"),
		Failed:      !croppedSaved,
	}
	if !croppedSaved {
		up.FailedReason = "cropped image store failed"
	}
	if err := db.Create(&up).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                 up.ID,
		"image_front_path":   toURLPath(relFront),
		"image_cropped_path": toURLPath(relCrop),
	})
}

func listUploadsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Upload
	q := db.Model(&models.Upload{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// serveImageHandler serves stored images from the upload base. Path
// traversal outside the base is rejected.
func serveImageHandler(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("path"), "/")
	base, err := filepath.Abs(filepath.Join(uploadBaseDir(), "images"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	full, err := filepath.Abs(filepath.Join(base, filepath.FromSlash(rel)))
	if err != nil || !strings.HasPrefix(full, base+string(os.PathSeparator)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if fi, err := os.Stat(full); err != nil || fi.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.File(full)
}

// importChecklistHandler ingests a CSV of checklist rows. Header columns:
// sport,year,brand,set_name,player,team,card_number,parallel (any order,
// extras ignored).
func importChecklistHandler(c *gin.Context) {
	fh, err := c.FormFile("csv_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "csv_file required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open upload"})
		return
	}
	defer f.Close()

	count, err := checklist.ImportCSV(db, f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

func listChecklistHandler(c *gin.Context) {
	var rows []models.ChecklistEntry
	if err := db.Order("id").Limit(1000).Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func toURLPath(rel string) string {
	return strings.ReplaceAll(rel, string(os.PathSeparator), "/")
}
