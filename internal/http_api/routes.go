package http_api

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	api := s.router.Group("/api/v1")

	keys := api.Group("/keys")
	keys.POST("", s.createKey)
	keys.GET("/:id", s.getKey)
	keys.PUT("/:id/name", s.renameKey)
	keys.POST("/:id/regenerate", s.regenerateKey)

	b := api.Group("/billing", s.requireBilling)
	b.GET("/balances", s.balances)
	b.GET("/deposit", s.depositPreview)
	b.POST("/deposit", s.deposit)
	b.POST("/deposit/close", s.closeModal(func() modalControl { return s.panel.Deposit }))
	b.GET("/withdrawal", s.withdrawal)
	b.POST("/withdraw", s.withdraw)
	b.POST("/withdraw/close", s.closeModal(func() modalControl { return s.panel.Withdraw }))
}
