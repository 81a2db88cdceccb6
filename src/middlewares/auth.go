package middlewares

import (
	"log"
	"os"
	"strings"
	"ticketr/src/db"
	"ticketr/src/models"
	"ticketr/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer ") {
		ctx.AbortWithStatus(401)
		return
	}
	reqToken := strings.TrimPrefix(bearerToken, "Bearer ")
	if reqToken == "" {
		ctx.AbortWithStatus(401)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatus(401)
		return
	}
	if !tkn.Valid || claims.Subject == "" {
		ctx.AbortWithStatus(401)
		return
	}

	// The identity provider owns accounts; a local mirror row is kept so
	// tickets and events join against something.
	d := db.GetDb()
	user := models.User{ID: claims.Subject, Email: claims.Email, Name: claims.Name}
	if err := d.Where(&models.User{ID: claims.Subject}).FirstOrCreate(&user).Error; err != nil {
		log.Printf("Error mirroring user [%s]: %s\n", claims.Subject, err.Error())
	}

	ctx.Set("uid", claims.Subject)
	ctx.Set("email", claims.Email)
	ctx.Set("name", claims.Name)
}
