// Package signer authenticates Capture API requests.
//
// The reserved parameters access_token, client_id and client_secret are never
// sent as form fields. [Signer.Sign] removes them from a copy of the encoded
// parameter set and turns them into headers:
//
//   - with an access token: "Authorization: OAuth <token>"
//   - otherwise: "Authorization: Signature <client_id>:<digest>" plus a
//     "Date" header holding the UTC timestamp that was signed
//
// The digest is the base64 HMAC-SHA1 of the string built by [Base], keyed
// with the client secret.
package signer
