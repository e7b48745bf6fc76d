package internal

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func Register(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email     string `json:"email"`
			Name      string `json:"name"`
			Role      string `json:"role"`
			Password  string `json:"password"`
			Password2 string `json:"password2"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if req.Email == "" || req.Name == "" || req.Password == "" || req.Password2 == "" {
			c.JSON(400, gin.H{"error": "fill all fields"})
			return
		}
		if !strings.Contains(req.Email, "@") {
			c.JSON(400, gin.H{"error": "validation failed", "fields": []Violation{{Field: "email", Reason: "must be an email address"}}})
			return
		}
		// only the two marketplace roles self-register; admins are promoted
		if req.Role != RoleAthlete && req.Role != RoleClient {
			c.JSON(400, gin.H{"error": "validation failed", "fields": []Violation{{Field: "role", Reason: "not an allowed value"}}})
			return
		}
		if req.Password != req.Password2 {
			c.JSON(400, gin.H{"error": "passwords do not match"})
			return
		}
		if len(req.Password) < 8 {
			c.JSON(400, gin.H{"error": "password too short"})
			return
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), 10)

		var id int
		err := db.QueryRow(context.Background(),
			"INSERT INTO identities(email, name, role, status, pass_hash) VALUES ($1,$2,$3,'active',$4) RETURNING id",
			req.Email, req.Name, req.Role, string(hash),
		).Scan(&id)
		if err != nil {
			c.JSON(409, gin.H{"error": "email already registered"})
			return
		}
		logAction(db, &id, "register", "role="+req.Role)
		c.JSON(200, gin.H{"ok": true})
	}
}

func Login(db *pgxpool.Pool, secret string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}

		var u Identity
		var passHash string
		err := db.QueryRow(context.Background(),
			"SELECT id, email, name, role, status, pass_hash FROM identities WHERE email=$1",
			strings.ToLower(strings.TrimSpace(req.Email)),
		).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &passHash)
		if err != nil {
			c.JSON(401, gin.H{"error": "invalid credentials"})
			return
		}
		if u.Status == IdentityRevoked {
			c.JSON(401, gin.H{"error": "invalid credentials"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(passHash), []byte(req.Password)) != nil {
			c.JSON(401, gin.H{"error": "invalid credentials"})
			return
		}

		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
			UserID: u.ID,
			Role:   u.Role,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				Issuer:    "talenthub",
			},
		})
		s, _ := tok.SignedString([]byte(secret))

		c.SetCookie(cookieName, s, 86400, "/", "", secure, true)

		logAction(db, &u.ID, "login", "success")
		c.JSON(200, gin.H{"ok": true})
	}
}

func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(cookieName, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
