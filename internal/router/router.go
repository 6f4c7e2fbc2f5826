package router

import (
	"github.com/dangminhtuanan/storefront/internal/cart"
	"github.com/dangminhtuanan/storefront/internal/logger"
	"github.com/dangminhtuanan/storefront/internal/middleware"
	"github.com/dangminhtuanan/storefront/internal/order"
	"github.com/dangminhtuanan/storefront/internal/product"
	usertype "github.com/dangminhtuanan/storefront/internal/types/user"
	"github.com/dangminhtuanan/storefront/internal/user"
	"github.com/dangminhtuanan/storefront/internal/vnpay"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(
	userH *user.Handler,
	productH *product.Handler,
	cartH *cart.Handler,
	orderH *order.Handler,
	vnpayH *vnpay.Handler,
	jwtSecret []byte,
	userRepo user.UserRepository,
) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.WithLogging)
	r.Use(chiMiddleware.Recoverer)

	r.Use(middleware.GzipHandler)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", userH.Register)
		r.Post("/login", userH.Login)
	})

	r.Get("/api/products", productH.ListProducts)
	r.Get("/api/products/{id}", productH.GetProduct)

	// возврат браузера со шлюза приходит без токена
	r.Get("/api/vnpay/return", vnpayH.Return)

	// оформление и оплата доступны и гостям: заказ создаётся по email,
	// ссылка на оплату — по UUID заказа
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalJWT(jwtSecret, userRepo))
		r.Post("/api/orders", orderH.CreateOrder)
		r.Post("/api/vnpay/create", vnpayH.CreatePayment)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(jwtSecret, userRepo))

		r.Get("/api/cart", cartH.GetCart)
		r.Put("/api/cart", cartH.PutCart)

		r.Get("/api/orders/my", orderH.ListMyOrders)
		r.Get("/api/orders/{id}", orderH.GetOrder)
		r.Put("/api/orders/{id}/cancel", orderH.CancelOrder)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(usertype.RoleStaff))
			r.Get("/api/orders", orderH.ListOrders)
			r.Put("/api/orders/{id}", orderH.UpdateOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(usertype.RoleAdmin))
			r.Post("/api/orders/{id}/override", orderH.OverrideStatus)
			r.Delete("/api/orders/{id}", orderH.DeleteOrder)
		})
	})

	return r
}
