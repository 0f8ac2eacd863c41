package mime

import (
	"path/filepath"

	"github.com/indigo-web/utils/strcomp"
)

var Extension = map[string]MIME{
	".html": HTML,
	".htm":  HTML,
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".avif": AVIF,
	".css":  CSS,
	".gif":  GIF,
	".js":   JS,
	".mjs":  JS,
	".json": JSON,
	".pdf":  PDF,
	".svg":  SVG,
	".txt":  Plain,
	".wasm": WASM,
	".webp": WEBP,
	".xml":  XML,
	".yaml": YAML,
	".gz":   GZIP,
	".zip":  ZIP,
	".ico":  ICO,
}

// FromFilename infers the MIME type from the file extension. Extensions are matched
// case-insensitively. Unknown or missing extensions result in Default.
func FromFilename(name string) MIME {
	ext := filepath.Ext(name)
	if len(ext) == 0 {
		return Default
	}

	if mime, found := Extension[ext]; found {
		return mime
	}

	for known, mime := range Extension {
		if strcomp.EqualFold(known, ext) {
			return mime
		}
	}

	return Default
}
