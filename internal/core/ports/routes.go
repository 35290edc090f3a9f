package ports

// Paths served under the user route group. Emails link to them, so the
// router and the notification templates share these values.
const (
	UserRoutePrefix    = "/user"
	RegisterRoute      = "/register"
	VerifyAccountRoute = "/verify/account"
	PasswordResetRoute = "/password"

	VerifyAccountPath = UserRoutePrefix + VerifyAccountRoute
	PasswordResetPath = UserRoutePrefix + PasswordResetRoute
)
