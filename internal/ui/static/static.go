package static

import "embed"

//go:embed app.css app.js
var Files embed.FS
