package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// authMiddleware requires a bearer token signed with the service JWT key
func (svc *ServiceContext) authMiddleware(c *gin.Context) {
	tokenStr, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found || tokenStr == "" {
		log.Printf("INFO: %s %s rejected; no bearer token", c.Request.Method, c.Request.URL)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(svc.JWTKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		log.Printf("INFO: %s %s rejected; invalid token: %s", c.Request.Method, c.Request.URL, err.Error())
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		sub = "unknown"
	}
	log.Printf("INFO: %s %s authorized for %s", c.Request.Method, c.Request.URL, sub)
	c.Set("user", sub)
	c.Next()
}

func requestUser(c *gin.Context) string {
	if user := c.GetString("user"); user != "" {
		return user
	}
	return "anonymous"
}
