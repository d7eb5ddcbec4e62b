package batch2d

import _ "embed"

//go:embed shaders/rect.wgsl
var rectShaderWGSL string

//go:embed shaders/line.wgsl
var lineShaderWGSL string

//go:embed shaders/circle.wgsl
var circleShaderWGSL string
