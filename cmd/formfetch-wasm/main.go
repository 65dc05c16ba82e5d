//go:build js && wasm

// Command formfetch-wasm runs in the page and exposes sendRequest(method) to
// its scripts. Build with GOOS=js GOARCH=wasm and load through wasm_exec.js.
//
// The page may select the variant with a data-variant attribute on <body>.
package main

import (
	"context"
	"fmt"
	"os"
	"syscall/js"

	"honnef.co/go/js/dom/v2"

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/logging"
	"github.com/raysh454/formfetch/internal/wasmdom"
	"github.com/raysh454/formfetch/internal/webclient"
)

var document = dom.GetWindow().Document().(dom.HTMLDocument)

func main() {
	loaded := make(chan struct{})
	switch readyState := document.ReadyState(); readyState {
	case "loading":
		document.AddEventListener("DOMContentLoaded", false, func(dom.Event) { close(loaded) })
	case "interactive", "complete":
		close(loaded)
	default:
		panic(fmt.Errorf("internal error: unexpected document.ReadyState value: %v", readyState))
	}
	<-loaded

	logger := logging.NewStdoutLogger("formfetch-wasm")

	variant, err := dispatch.ParseVariant(document.Body().GetAttribute("data-variant"))
	if err != nil {
		logger.Error("invalid data-variant", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	client, err := webclient.NewNetHTTPClient(webclient.DefaultConfig(), logger, nil)
	if err != nil {
		logger.Error("creating webclient", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	bindings := wasmdom.Bind(document)
	d := dispatch.New(client, bindings, logger, dispatch.WithVariant(variant))
	logger.Info("bound page fields",
		logging.Field{Key: "methods", Value: bindings.Methods()},
		logging.Field{Key: "variant", Value: variant.Name})

	js.Global().Set("sendRequest", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) == 0 {
			logger.Warn("sendRequest called without a method")
			return nil
		}
		task, err := d.Dispatch(context.Background(), args[0].String())
		if err != nil {
			logger.Warn("sendRequest rejected", logging.Field{Key: "error", Value: err.Error()})
			return nil
		}
		return task.ID
	}))

	select {}
}
