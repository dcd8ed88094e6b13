package webserver

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/data"
	"github.com/opencivic/agora/src/agora/types"
)

type Auth struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuth(db *gorm.DB, secret []byte) Auth {
	return Auth{db: db, jwtSecret: secret}
}

func (a Auth) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,min=2,max=128"`
		Email    string `json:"email" binding:"required,email,max=256"`
		Password string `json:"password" binding:"required,min=8,max=72"`
		Location string `json:"location" binding:"max=128"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	role := types.RoleCitizen
	if req.Role != "" {
		role = types.Role(req.Role)
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "unknown role"})
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(c, err)
		return
	}

	user := types.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
		Location: req.Location,
		Role:     role,
	}
	if err := data.CreateUser(a.db, &user); err != nil {
		if errors.Is(err, types.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"msg": "email already registered"})
			return
		}
		fail(c, err)
		return
	}

	token, err := issueJWT(user, a.jwtSecret)
	if err != nil {
		fail(c, err)
		return
	}
	log.Printf("auth: registered %s (%s)", user.Email, user.Role)
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (a Auth) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	user, err := data.GetUserByEmail(a.db, req.Email)
	if err != nil {
		// Same reply for unknown email and bad password.
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid credentials"})
		return
	}

	token, err := issueJWT(user, a.jwtSecret)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func issueJWT(u types.User, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"exp":  time.Now().Add(72 * time.Hour).Unix(),
	})
	return token.SignedString(secret)
}
