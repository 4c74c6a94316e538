// Package router matches requests against an ordered route table.
//
// Patterns are either literal paths, matched by whole-string equality, or
// contain ":name" segments:
//
//	/users/:id          matches /users/42, captures id=42
//	/users/:id          does not match /users/ or /users/42/extra
//	/a/:x/b/:y          matches /a/1/b/2
//
// The first registered route with the request's exact method and a
// matching path wins. Requests that match nothing receive a plain-text
// "Not Found" 404.
package router
