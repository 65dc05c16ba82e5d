// Package wasmdom binds field triples of the hosting page's DOM when running
// as WebAssembly in the browser. It is empty on other platforms.
package wasmdom
