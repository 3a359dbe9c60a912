package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// openAPIFile OpenAPI 文档位置（相对工作目录）
const openAPIFile = "docs/api/openapi.yaml"

// registerOpenAPIRoutes 提供 /openapi 与 /docs/redoc
func registerOpenAPIRoutes(engine *gin.Engine) {
	engine.GET("/openapi", serveOpenAPI)
	engine.GET("/openapi.yaml", serveOpenAPI)
	engine.GET("/docs/redoc", serveRedoc)
	engine.GET("/docs/ui", serveSwaggerUI)
}

func serveOpenAPI(c *gin.Context) {
	if _, err := os.Stat(openAPIFile); err != nil {
		c.String(http.StatusNotFound, "openapi document not found")
		return
	}
	c.Header("Content-Type", "application/yaml; charset=utf-8")
	c.File(openAPIFile)
}

func serveRedoc(c *gin.Context) {
	// 优先使用本地 redoc 资源，离线可用；否则回退到 CDN
	script := "https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"
	if _, err := os.Stat("static/vendors/redoc/redoc.standalone.js"); err == nil {
		script = "/static/vendors/redoc/redoc.standalone.js"
	}

	html := `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Expo Garden API - Redoc</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc spec-url="/openapi"></redoc>
    <script src="` + script + `"></script>
  </body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func serveSwaggerUI(c *gin.Context) {
	jsBundle := "https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"
	css := "https://unpkg.com/swagger-ui-dist@5/swagger-ui.css"
	if _, err := os.Stat("static/vendors/swagger-ui/swagger-ui-bundle.js"); err == nil {
		jsBundle = "/static/vendors/swagger-ui/swagger-ui-bundle.js"
		css = "/static/vendors/swagger-ui/swagger-ui.css"
	}

	html := `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Expo Garden API - Swagger UI</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link rel="stylesheet" href="` + css + `" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="` + jsBundle + `" crossorigin></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi',
        dom_id: '#swagger-ui',
        docExpansion: 'none',
        presets: [SwaggerUIBundle.presets.apis],
      });
    </script>
  </body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
