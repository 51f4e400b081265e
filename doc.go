// Package portal is the backend core of a multi-tenant task-management
// portal: authentication, password reset, and task authorization.
//
// Identity:
//   - TokenService issues and validates signed bearer tokens carrying the
//     user id and email. Auther wraps it with Login, Resolve, and Register
//     on top of the Users repository; password hashing is an injected
//     PasswordAuthenticator with a bcrypt default.
//
// Password reset:
//   - RequestPasswordResetHandler and RedeemPasswordResetHandler run the
//     one-time token lifecycle inside repository transactions. At most one
//     token per user is active at any time: a new request supersedes the
//     previous token in the same transaction that creates the replacement.
//     Redemption consumes the token and rewrites the credential atomically;
//     expired and unknown tokens are indistinguishable to the caller.
//
// Task authorization:
//   - EvaluateTaskAccess is a pure decision over role, ownership, and
//     group membership, returning a typed AccessDecision with an optional
//     field allow-list. Group members without ownership may only touch
//     status and completed. ReconcileTaskState keeps those two fields in
//     agreement after every update, with the completed flag taking
//     precedence when both appear in the same payload.
package portal
