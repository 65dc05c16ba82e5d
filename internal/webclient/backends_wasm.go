//go:build js && wasm

package webclient

// A browser has no Chrome to drive; net/http already goes through fetch.
func registerPlatformBackends() {}
