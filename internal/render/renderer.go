// Package render draws a generated stack as a D2 diagram.
package render

// Renderer defines the interface for diagram generators.
type Renderer interface {
	Render(in Input) string
}

// RenderD2 generates a D2 diagram of a stack.
func RenderD2(in Input, opts Options) string {
	r := &D2Renderer{Options: opts}
	return r.Render(in)
}
