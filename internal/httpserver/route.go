package httpserver

import (
	"context"
	"net/http"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	CatalogHandler  *CatalogHTTP
	CartHandler     *CartHTTP
	OrdersHandler   *OrdersHTTP
	AdminHandler    *AdminHTTP
	ChatHandler     *ChatHTTP
	CustomerHandler *CustomerHTTP
	JWTSecret       []byte

	// Ready reports whether the storage behind the handlers is reachable.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewIdentityMiddleware(d.JWTSecret)

	products := e.Group("/catalog/products")
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.GET("/:id/quote", d.CatalogHandler.Quote)

	productAdmin := products.Group("", authMW.RequireAdmin)
	productAdmin.POST("", d.CatalogHandler.CreateProduct)
	productAdmin.PATCH("/:id", d.CatalogHandler.PatchProduct)
	productAdmin.POST("/:id/restock", d.CatalogHandler.Restock)
	productAdmin.DELETE("/:id", d.CatalogHandler.DeleteProduct)

	e.GET("/catalog/banners", d.CatalogHandler.ListBanners)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PATCH("/items", d.CartHandler.UpdateItem)
	cart.DELETE("/items", d.CartHandler.RemoveItem)
	cart.POST("/checkout", d.CartHandler.StartCheckout)
	cart.POST("/checkout/confirm", d.CartHandler.ConfirmCheckout)

	profile := e.Group("/profile", authMW.RequireAuth)
	profile.GET("", d.CustomerHandler.GetProfile)
	profile.PUT("", d.CustomerHandler.SaveProfile)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.GET("", d.OrdersHandler.History)
	orders.POST("/:id/cancel", d.OrdersHandler.Cancel)

	admin := e.Group("/admin", authMW.RequireAdmin)
	admin.GET("/orders", d.AdminHandler.ListOrders)
	admin.PATCH("/orders/:id", d.AdminHandler.UpdateOrderStatus)
	admin.GET("/dashboard", d.AdminHandler.Dashboard)
	admin.GET("/payments", d.AdminHandler.ListPayments)
	admin.GET("/checkouts", d.AdminHandler.ListCheckouts)
	admin.GET("/customers", d.CustomerHandler.ListCustomers)
	admin.GET("/customers/:id", d.CustomerHandler.GetCustomer)
	admin.GET("/banners", d.CatalogHandler.ListBanners)
	admin.POST("/banners", d.CatalogHandler.CreateBanner)
	admin.PATCH("/banners/:id", d.CatalogHandler.PatchBanner)
	admin.DELETE("/banners/:id", d.CatalogHandler.DeleteBanner)

	e.POST("/api/chat", d.ChatHandler.Chat)
}
