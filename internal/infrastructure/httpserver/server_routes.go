package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api")
	api.GET("/health", s.healthCheck)
	api.GET("/config-check", s.configCheck)

	// pulled by remote fetchers, so neither authenticated nor limited
	api.GET("/upload/audio-temp/:id", s.getTempAudio)
	api.GET("/upload/image-temp/:id", s.getTempImage)

	jwt := s.middleware.JWT.RequireJWT()
	limit := s.middleware.RateLimit.Handler()

	accounts := api.Group("/accounts", jwt)
	accounts.GET("", s.listAccounts)
	accounts.GET("/summary", s.summarizeAccounts)
	accounts.GET("/export", s.exportAccounts)
	accounts.GET("/:id", s.getAccount)
	accounts.POST("", s.createAccount)
	accounts.POST("/batch", s.batchCreateAccounts)
	accounts.PUT("/:id", s.updateAccount)
	accounts.DELETE("/:id", s.deleteAccount)

	upload := api.Group("/upload", jwt)
	upload.POST("/image", s.uploadImage)
	upload.POST("/image-base64", s.uploadImageBase64)
	upload.POST("/audio", s.uploadAudio)
	upload.POST("/audio-base64", s.uploadAudioBase64)

	asr := api.Group("/asr", jwt, limit)
	asr.POST("/recognize", s.recognizeSpeech)

	ai := api.Group("/ai", jwt, limit)
	ai.POST("/parse-voice", s.parseVoice)
	ai.POST("/parse-image", s.parseImage)
}
