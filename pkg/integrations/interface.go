package integrations

import "github.com/kerbaras/mangamirror/pkg/mirror"

// Exporter packages a mirrored title into a single file and returns its path.
type Exporter interface {
	Export(root mirror.Paths) (string, error)
}

var _ Exporter = (*EPubBuilder)(nil)
