package v1

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by every handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Mount registers each handler under its path prefix on rg.
//
// Usage:
//
//	Mount(api, map[string]RouteRegistrar{
//	    "/documents": handlers.NewDocumentHandler(base, svc, nil),
//	})
func Mount(rg *gin.RouterGroup, routes map[string]RouteRegistrar) {
	for prefix, handler := range routes {
		if handler == nil {
			continue
		}
		handler.RegisterRoutes(rg.Group(prefix))
	}
}
