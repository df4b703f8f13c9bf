package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	// Admission control applies to the analysis path only; health, metrics
	// and the operator surface stay reachable for a blocked client.
	api.POST("/analyze", s.analyzeImage, s.middleware.RateLimit.Handler())

	admin := api.Group("/admin", s.middleware.AdminAuth.RequireAdmin())
	admin.GET("/cache", s.getCacheStats)
	admin.DELETE("/cache", s.clearCache)
	admin.DELETE("/cache/:prefix", s.deleteCacheEntry)
	admin.GET("/usage", s.getUsageRecords)
}
