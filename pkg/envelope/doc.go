// Package envelope normalizes backend response bodies.
//
// The backend answers in one of two shapes:
//
//   - Enveloped: {"success": bool, "message": string, "data": any}
//   - Bare: the payload itself, without any wrapper
//
// Callers use ExtractData and ExtractErrorMessage so they never branch
// on the shape. All functions are pure and never panic on malformed
// input.
//
// Usage:
//
//	data := envelope.ExtractData(body)
//	users, err := envelope.DecodeList[User](body)
//	msg := envelope.ExtractErrorMessage(err)
package envelope
