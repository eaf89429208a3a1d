package providers

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist wird von Open geliefert, wenn die Datei in der Quelle fehlt.
var ErrNotExist = errors.New("import file does not exist")

// Source ist das Interface, das jede Import-Quelle (lokales Verzeichnis, S3) implementieren muss.
// Alle Pfade sind relativ zum Importverzeichnis einer Studie und verwenden "/" als Trenner.
type Source interface {
	// Open öffnet eine Datei zum Lesen.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Exists meldet, ob die Datei vorhanden ist.
	Exists(ctx context.Context, name string) (bool, error)

	// List gibt die Dateien eines Unterverzeichnisses mit der Endung ext sortiert zurück.
	List(ctx context.Context, dir, ext string) ([]string, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "filesystem").
	Name() string
}
