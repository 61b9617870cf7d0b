// Package shaders embeds the GLSL 4.1 sources of the scene programs.
package shaders

import (
	_ "embed"
)

var (
	//go:embed phong.vert
	PhongVertex string
	//go:embed phong.frag
	PhongFragment string

	//go:embed shadow.vert
	ShadowVertex string
	//go:embed shadow.frag
	ShadowFragment string
)
