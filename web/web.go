package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static/*
var staticFS embed.FS

// Assets returns the embedded page and its scripts
func Assets() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil
	}
	return http.FS(sub)
}

// Register serves the report form and live chart at "/" and their assets under "/static"
func Register(router gin.IRouter) {
	index, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		panic(err)
	}

	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	router.StaticFS("/static", Assets())
}
