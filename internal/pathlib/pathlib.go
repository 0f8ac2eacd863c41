package pathlib

// Resolve maps a request path into a filename relative to the served root. The root
// path is aliased to the index document, every other path loses exactly one leading
// separator. Nothing else is done: `..` segments and repeated separators are passed
// through as is, confining the result is up to the file loader.
func Resolve(path, index string) string {
	if path == "/" {
		return index
	}

	if len(path) > 0 && isSeparator(path[0]) {
		return path[1:]
	}

	return path
}

func isSeparator(char byte) bool {
	return char == '/' || char == '\\'
}
