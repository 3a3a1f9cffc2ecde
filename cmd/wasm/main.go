//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/engine"
	"github.com/vecnote/vecnote/internal/geom"
)

var (
	inputs = engine.DefaultInputs()
	editor *engine.Editor
)

var errMissingArg = errors.New("missing argument")

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	editor = engine.NewEditor(engine.WithInputs(inputs), engine.WithLogger(logger))

	api := js.Global().Get("Object").New()

	// --- Input events (frontend → editor) ---
	api.Set("pointerDown", pointerFunc(editor.PointerDown))
	api.Set("pointerMove", pointerFunc(editor.PointerMove))
	api.Set("pointerUp", pointerFunc(editor.PointerUp))
	api.Set("click", pointerFunc(editor.Click))
	api.Set("doubleClick", pointerFunc(editor.DoubleClick))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setInputs", js.FuncOf(setInputs))
	api.Set("cancel", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		editor.Cancel()
		return nil
	}))

	// --- Commands ---
	api.Set("deleteSelection", action(editor.DeleteSelection))
	api.Set("copy", action(editor.Copy))
	api.Set("paste", action(editor.Paste))
	api.Set("undo", action(editor.Undo))
	api.Set("redo", action(editor.Redo))
	api.Set("bringToFront", action(editor.BringToFront))
	api.Set("sendToBack", action(editor.SendToBack))
	api.Set("group", action(editor.Group))
	api.Set("ungroup", action(editor.Ungroup))
	api.Set("toHolePath", action(editor.ToHolePath))
	api.Set("fromHolePath", action(editor.FromHolePath))
	api.Set("selectAll", action(func() error { editor.SelectAll(); return nil }))
	api.Set("deselect", action(func() error { editor.Deselect(); return nil }))
	api.Set("loadSample", action(editor.LoadSample))
	api.Set("select", js.FuncOf(selectShape))
	api.Set("setStroke", stringAction(editor.SetStroke))
	api.Set("setDash", stringAction(editor.SetDash))
	api.Set("setText", stringAction(editor.SetText))
	api.Set("setBackground", stringAction(editor.SetBackground))
	api.Set("setFill", js.FuncOf(setFill))
	api.Set("setStrokeWidth", numberAction(editor.SetStrokeWidth))
	api.Set("setOpacity", numberAction(editor.SetOpacity))
	api.Set("scaleSelection", numberAction(editor.ScaleSelection))
	api.Set("setActiveLayer", intAction(editor.SetActiveLayer))
	api.Set("moveToLayer", intAction(editor.MoveSelectionToLayer))
	api.Set("setLayerVisible", js.FuncOf(setLayerVisible))
	api.Set("setTimeRange", js.FuncOf(setTimeRange))
	api.Set("setDisplayWindow", js.FuncOf(setDisplayWindow))
	api.Set("translate", js.FuncOf(translate))
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("importDocument", js.FuncOf(importDocument))

	// --- Queries (frontend ← editor) ---
	api.Set("render", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return editor.RenderJSON()
	}))
	api.Set("exportDocument", js.FuncOf(exportDocument))
	api.Set("getState", js.FuncOf(getState))
	api.Set("getProperties", js.FuncOf(getProperties))
	api.Set("hitTest", js.FuncOf(hitTest))

	js.Global().Set("vecnoteEditor", api)
	js.Global().Set("vecnoteWasmReady", js.ValueOf(true))

	select {}
}

// result reports an error to the frontend. Refusals that are not meant for
// the user are swallowed.
func result(err error) interface{} {
	if err != nil && engine.IsNotice(err) {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func decodeArg(args []js.Value, v interface{}) error {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return errMissingArg
	}
	return json.Unmarshal([]byte(args[0].String()), v)
}

func pointerFunc(fn func(engine.PointerEvent)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		var ev engine.PointerEvent
		if err := decodeArg(args, &ev); err != nil {
			return result(err)
		}
		fn(ev)
		return nil
	})
}

func action(fn func() error) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return result(fn())
	})
}

func stringAction(fn func(string) error) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return result(errMissingArg)
		}
		return result(fn(args[0].String()))
	})
}

func numberAction(fn func(float64) error) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return result(errMissingArg)
		}
		return result(fn(args[0].Float()))
	})
}

func intAction(fn func(int) error) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return result(errMissingArg)
		}
		return result(fn(args[0].Int()))
	})
}

func wheel(this js.Value, args []js.Value) interface{} {
	var ev engine.WheelEvent
	if err := decodeArg(args, &ev); err != nil {
		return result(err)
	}
	editor.Wheel(ev)
	return nil
}

func keyDown(this js.Value, args []js.Value) interface{} {
	var ev engine.KeyEvent
	if err := decodeArg(args, &ev); err != nil {
		return result(err)
	}
	handled, err := editor.KeyDown(ev)
	if err != nil && engine.IsNotice(err) {
		return js.ValueOf(map[string]interface{}{"handled": handled, "error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"handled": handled})
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	tool, err := engine.ParseTool(args[0].String())
	if err != nil {
		return result(err)
	}
	editor.SetTool(tool)
	return result(nil)
}

// setInputs merges the posted control values into the current ones; fields
// left out keep their value.
func setInputs(this js.Value, args []js.Value) interface{} {
	return result(decodeArg(args, inputs))
}

func selectShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	additive := len(args) > 1 && args[1].Truthy()
	return result(editor.Select(args[0].String(), additive))
}

func setFill(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return result(errMissingArg)
	}
	return result(editor.SetFill(args[0].String(), args[1].Truthy()))
}

func setLayerVisible(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return result(errMissingArg)
	}
	return result(editor.SetLayerVisible(args[0].Int(), args[1].Truthy()))
}

func setTimeRange(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return result(errMissingArg)
	}
	return result(editor.SetTimeRange(args[0].Float(), args[1].Float()))
}

func setDisplayWindow(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return result(errMissingArg)
	}
	editor.SetDisplayWindow(args[0].Float(), args[1].Float())
	return result(nil)
}

func translate(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return result(errMissingArg)
	}
	return result(editor.Translate(args[0].Float(), args[1].Float()))
}

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	return result(editor.Load([]byte(args[0].String())))
}

// importDocument appends a drawing; the second argument adopts its
// background.
func importDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	useBackground := len(args) > 1 && args[1].Truthy()
	return result(editor.Import([]byte(args[0].String()), useBackground))
}

func exportDocument(this js.Value, args []js.Value) interface{} {
	data, err := editor.Export()
	if err != nil {
		return result(err)
	}
	return string(data)
}

type editorState struct {
	Tool        string                    `json:"tool"`
	Mode        string                    `json:"mode"`
	ActiveLayer int                       `json:"activeLayer"`
	Selection   []string                  `json:"selection"`
	CanUndo     bool                      `json:"canUndo"`
	CanRedo     bool                      `json:"canRedo"`
	Viewport    geom.Viewport             `json:"viewport"`
	Bounds      *geom.Rect                `json:"selectionBounds,omitempty"`
	Layers      [document.LayerCount]bool `json:"layersVisible"`
}

func getState(this js.Value, args []js.Value) interface{} {
	st := editorState{
		Tool:        string(editor.Tool()),
		Mode:        editor.Mode().String(),
		ActiveLayer: editor.ActiveLayer(),
		Selection:   editor.Selection(),
		CanUndo:     editor.CanUndo(),
		CanRedo:     editor.CanRedo(),
		Viewport:    editor.Viewport(),
	}
	if b, ok := editor.SelectionBounds(); ok {
		st.Bounds = &b
	}
	for i := range st.Layers {
		st.Layers[i] = editor.LayerVisible(i)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return result(err)
	}
	return string(data)
}

func getProperties(this js.Value, args []js.Value) interface{} {
	props, ok := editor.SelectionProperties()
	if !ok {
		return js.Null()
	}
	data, err := json.Marshal(props)
	if err != nil {
		return result(err)
	}
	return string(data)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.Null()
	}
	id := editor.HitTest(args[0].Float(), args[1].Float())
	if id == "" {
		return js.Null()
	}
	return id
}
