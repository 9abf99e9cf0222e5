/*
Package authsdk provides the wire types of the TOTPGate authentication
service and a small client for it.

# Overview

The service implements email/password signup and login with a mandatory TOTP
second factor. The server uses the request, response and error types of this
package directly, so the client and server cannot drift apart.

# Signup

Signup parks a registration and hands out a TOTP secret. The account is
created only when the first code from the authenticator app is confirmed:

	client := authsdk.NewSDKClient("http://localhost:8080")

	pending, err := client.Signup(ctx, authsdk.SignupRequest{
		Email:    "ann@example.com",
		Password: "correct horse battery",
		Name:     "Ann",
	})
	// show pending.QRCode, read a code from the app
	account, err := client.VerifySignup(ctx, pending.Token, code)

# Login

Login is two steps. The password step returns a short-lived challenge. If
the account never confirmed a secret, the response also carries a fresh one
to enroll with:

	login, err := client.Login(ctx, "ann@example.com", "correct horse battery")
	if login.State == authsdk.LoginStateAwaitingEnrollment {
		// show login.QRCode first
	}
	session, err := client.VerifyLogin(ctx, login.Challenge, code)

On success the service sets an HttpOnly session cookie, which the client keeps
in its cookie jar for Me and Logout:

	me, err := client.Me(ctx)
	err = client.Logout(ctx)

# Error Handling

Failed calls return *APIError. Compare against the predefined values with
errors.Is:

	_, err := client.VerifyLogin(ctx, login.Challenge, code)
	if errors.Is(err, authsdk.ErrInvalidCode) {
		// ask for another code, the challenge is still valid
	}
*/
package authsdk
