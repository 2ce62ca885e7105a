package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/kmerkulov/storefront/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	ProductHandler *ProductHTTP
	OrderHandler   *OrderHTTP
	SearchHandler  *SearchHTTP
	Guard          *authmw.Guard
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", d.AuthHandler.Register)
	users.POST("/login", d.AuthHandler.Login)
	users.POST("/logout", d.AuthHandler.Logout)
	users.GET("/me", d.AuthHandler.Me, d.Guard.RequireAuth)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.Search)
	}

	productsAdmin := products.Group("", d.Guard.RequireAdmin)
	productsAdmin.POST("", d.ProductHandler.CreateProduct)
	productsAdmin.PATCH("/:id", d.ProductHandler.PatchProduct)
	productsAdmin.DELETE("/:id", d.ProductHandler.DeleteProduct)
	productsAdmin.POST("/:id/images", d.ProductHandler.AddImage)
	productsAdmin.DELETE("/:id/images/:imageID", d.ProductHandler.DeleteImage)

	orders := v1.Group("/orders", d.Guard.RequireAuth)
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.GET("", d.OrderHandler.ListMyOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	ordersAdmin := v1.Group("/orders/admin", d.Guard.RequireAdmin)
	ordersAdmin.GET("/all", d.OrderHandler.ListAllOrders)
	ordersAdmin.PATCH("/:id/status", d.OrderHandler.UpdateStatus)
}
