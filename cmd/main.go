package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Version of the service
const version = "1.0.0"

func main() {
	log.Printf("===> ArchivesSpace MODS service starting up <===")

	// Get config params and use them to init service context. Any issues are fatal
	cfg := LoadConfiguration()
	svc := InitializeService(version, cfg)

	log.Printf("INFO: setup routes...")
	gin.SetMode(gin.ReleaseMode)
	gin.DisableConsoleColor()
	router := setupRouter(svc)

	portStr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("INFO: start service v%s on port %s", version, portStr)
	log.Fatal(router.Run(portStr))
}

func setupRouter(svc *ServiceContext) *gin.Engine {
	router := gin.Default()
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowCredentials = true
	corsCfg.AddAllowHeaders("Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/", svc.getVersion)
	router.GET("/favicon.ico", svc.ignoreFavicon)
	router.GET("/version", svc.getVersion)
	router.GET("/healthcheck", svc.healthCheck)

	router.GET("/jobs/:id", svc.getJobStatus)

	router.GET("/archivesspace/mods", svc.archivesSpaceMiddleware, svc.getMODS)
	router.POST("/archivesspace/mods", svc.authMiddleware, svc.archivesSpaceMiddleware, svc.publishMODS)
	router.POST("/archivesspace/repositories/:repo/resources/:id/mods", svc.authMiddleware, svc.archivesSpaceMiddleware, svc.exportCollectionMODS)
	router.POST("/archivesspace/digitalobjects/fileuri", svc.authMiddleware, svc.archivesSpaceMiddleware, svc.addFileURIs)

	router.POST("/fedora/diff", svc.authMiddleware, svc.fedoraDiff)
	return router
}
