//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/osu-uwrt/data-collection-webapp/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	annotator := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	annotator.Set("loadVideo", js.FuncOf(loadVideo))
	annotator.Set("loadAnnotations", js.FuncOf(loadAnnotations))
	annotator.Set("pointerDown", js.FuncOf(pointer(eng.PointerDown)))
	annotator.Set("pointerMove", js.FuncOf(pointer(eng.PointerMove)))
	annotator.Set("pointerUp", js.FuncOf(pointer(eng.PointerUp)))
	annotator.Set("keyDown", js.FuncOf(keyDown))
	annotator.Set("command", js.FuncOf(command))

	// --- Queries (frontend ← backend) ---
	annotator.Set("exportAnnotations", js.FuncOf(exportAnnotations))
	annotator.Set("render", js.FuncOf(render))
	annotator.Set("getView", js.FuncOf(getView))
	annotator.Set("takeNotices", js.FuncOf(takeNotices))
	annotator.Set("getMarks", js.FuncOf(getMarks))
	annotator.Set("getCanvasSize", js.FuncOf(getCanvasSize))

	// Register on global scope
	js.Global().Set("annotatorEngine", annotator)

	// Signal that WASM is ready
	js.Global().Set("annotatorWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) js.Value {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func loadVideo(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "expected width, height and totalFrames"})
	}
	if err := eng.LoadVideo(args[0].Int(), args[1].Int(), args[2].Int()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func loadAnnotations(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "expected kind and annotations JSON"})
	}
	if err := eng.LoadAnnotations(args[0].String(), args[1].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func pointer(fn func(string) error) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return nil
		}
		if err := fn(args[0].String()); err != nil {
			return errorResult(err)
		}
		return nil
	}
}

func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.KeyDown(args[0].String())
	return nil
}

func command(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing command JSON"})
	}
	report, err := eng.Command(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	if report != "" {
		return js.ValueOf(map[string]interface{}{"ok": true, "report": report})
	}
	return okResult()
}

// --- Query Handlers ---

func exportAnnotations(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing kind"})
	}
	data, err := eng.ExportAnnotations(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(data)
}

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func getView(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetView())
}

func takeNotices(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.TakeNotices())
}

func getMarks(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetMarks())
}

func getCanvasSize(this js.Value, args []js.Value) interface{} {
	w, h := eng.GetCanvasSize()
	return js.ValueOf(map[string]interface{}{"width": w, "height": h})
}
