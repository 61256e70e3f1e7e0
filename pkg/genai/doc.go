// Package genai is the contract with the external generative-image service
// and a client for Google's Gemini image models.
//
// The editor treats the service as a black box that takes bitmaps plus an
// instruction and returns a replacement bitmap. Two requests exist:
//
//   - [EditRequest]: one image, a [Mode] and its instruction
//   - [MergeRequest]: two portraits merged side by side on white
//
// Both return (*Image, error). A nil image with a nil error means the
// service answered without an image part; callers keep the original bitmap
// and must not treat this as a failure.
//
// [Client] speaks the generateContent REST API, retries transient failures
// and throttles itself with a token-bucket limiter.
package genai
