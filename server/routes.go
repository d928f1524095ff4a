package server

func (s *Server) initRoutes() {
	// Public auth routes
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Routes requiring a valid session token
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), append(s.APIMiddleware(), s.RequireAuth())...))

	// Admin listing routes gated on role permissions
	s.RegisterRouteHandler("GET "+RouteAuthUsers, ChainMiddleware(s.ListUsersHandler(), append(s.APIMiddleware(), s.RequirePermission(PermissionUsersRead))...))
	s.RegisterRouteHandler("GET "+RouteAuthRoles, ChainMiddleware(s.ListRolesHandler(), append(s.APIMiddleware(), s.RequirePermission(PermissionRolesRead))...))

	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}
